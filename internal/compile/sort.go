package compile

import (
	"strings"

	"github.com/roach88/archq/internal/constraint"
)

// compileSorts renders sort keys against the declared aliases, in order.
// Every spec must carry its alias.
func (c *compilation) compileSorts(specs []constraint.SortSpec) (string, error) {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		sc, ok := c.scopes[s.Alias]
		if !ok {
			return "", newError(ErrCodeUnresolvedAlias, s.Alias, "sort references undeclared alias %q", s.Alias)
		}

		var key string
		switch {
		case s.Property != "" && s.Identity != "":
			return "", newError(ErrCodeInvalidConstraint, s.Alias, "sort sets both property %q and identity %q", s.Property, s.Identity)
		case s.Identity != "":
			if !s.Identity.Valid() {
				return "", newError(ErrCodeInvalidConstraint, s.Alias, "unknown identity component %q", s.Identity)
			}
			key = identityPath(s.Alias, s.Identity)
		case s.Property != "":
			if err := c.checkPath(sc.schemas, s.Property, false); err != nil {
				return "", err
			}
			key = s.Alias + "." + s.Property
		default:
			return "", newError(ErrCodeInvalidConstraint, s.Alias, "sort has neither property nor identity")
		}

		if s.Descending {
			keys = append(keys, key+" DESC")
		} else {
			keys = append(keys, key+" ASC")
		}
	}
	return strings.Join(keys, ", "), nil
}
