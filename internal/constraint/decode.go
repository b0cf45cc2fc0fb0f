package constraint

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/archq/internal/archetype"
)

// Query documents are YAML (JSON is accepted as YAML flow syntax):
//
//	roots:
//	  - types: [party.person, party.organisation]
//	constraints:
//	  - property: {path: uid, op: eq, values: ["1"]}
//	  - collection:
//	      relation: contacts
//	      join: left_outer
//	      type: {types: [contact.location]}
//	      constraints:
//	        - or:
//	            - property: {path: id, op: is_null}
//	            - property: {path: purpose, op: eq, values: [{bound: purpose}]}
//	  - link: {left: patient, right: owner.target}
//	  - sort: {property: name}
//	distinct: true
//	limit: 20
//
// Each constraint node carries exactly one of the keys type, property,
// collection, and, or, link, sort.

type queryDoc struct {
	Roots       []typeDoc `yaml:"roots"`
	Constraints []nodeDoc `yaml:"constraints"`
	Sorts       []sortDoc `yaml:"sorts"`
	Distinct    bool      `yaml:"distinct"`
	Offset      int       `yaml:"offset"`
	Limit       int       `yaml:"limit"`
}

type typeDoc struct {
	Alias       string   `yaml:"alias"`
	Types       []string `yaml:"types"`
	PrimaryOnly bool     `yaml:"primary_only"`
	ExactID     bool     `yaml:"exact_id"`
	InstanceID  any      `yaml:"instance_id"`
}

type propertyDoc struct {
	Alias  string `yaml:"alias"`
	Path   string `yaml:"path"`
	Op     string `yaml:"op"`
	Values []any  `yaml:"values"`
}

type collectionDoc struct {
	Source      string    `yaml:"source"`
	Relation    string    `yaml:"relation"`
	Alias       string    `yaml:"alias"`
	Join        string    `yaml:"join"`
	Type        *typeDoc  `yaml:"type"`
	Constraints []nodeDoc `yaml:"constraints"`
}

type linkDoc struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type sortDoc struct {
	Alias    string `yaml:"alias"`
	Property string `yaml:"property"`
	Identity string `yaml:"identity"`
	Desc     bool   `yaml:"desc"`
}

type nodeDoc struct {
	Type       *typeDoc       `yaml:"type"`
	Property   *propertyDoc   `yaml:"property"`
	Collection *collectionDoc `yaml:"collection"`
	And        []nodeDoc      `yaml:"and"`
	Or         []nodeDoc      `yaml:"or"`
	Link       *linkDoc       `yaml:"link"`
	Sort       *sortDoc       `yaml:"sort"`
}

// DecodeQuery decodes a query document. Unknown keys are rejected.
func DecodeQuery(data []byte) (Query, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc queryDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Query{}, fmt.Errorf("empty query document")
		}
		return Query{}, fmt.Errorf("decode query: %w", err)
	}

	q := Query{
		Distinct: doc.Distinct,
		Offset:   doc.Offset,
		Limit:    doc.Limit,
	}
	for i, r := range doc.Roots {
		tc, err := r.toConstraint()
		if err != nil {
			return Query{}, fmt.Errorf("roots[%d]: %w", i, err)
		}
		q.Roots = append(q.Roots, tc)
	}
	nodes, err := decodeNodes(doc.Constraints, "constraints")
	if err != nil {
		return Query{}, err
	}
	q.Constraints = nodes
	for i, s := range doc.Sorts {
		q.Sorts = append(q.Sorts, s.toSpec())
		if s.Identity != "" && !IdentityComponent(s.Identity).Valid() {
			return Query{}, fmt.Errorf("sorts[%d]: unknown identity component %q", i, s.Identity)
		}
	}
	return q, nil
}

func decodeNodes(docs []nodeDoc, field string) ([]Constraint, error) {
	var out []Constraint
	for i, d := range docs {
		c, err := d.toConstraint()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (d nodeDoc) toConstraint() (Constraint, error) {
	set := 0
	for _, present := range []bool{
		d.Type != nil, d.Property != nil, d.Collection != nil,
		d.And != nil, d.Or != nil, d.Link != nil, d.Sort != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("constraint node must have exactly one kind, found %d", set)
	}

	switch {
	case d.Type != nil:
		return d.Type.toConstraint()
	case d.Property != nil:
		return d.Property.toConstraint()
	case d.Collection != nil:
		return d.Collection.toConstraint()
	case d.And != nil:
		children, err := decodeNodes(d.And, "and")
		if err != nil {
			return nil, err
		}
		return BooleanConstraint{Op: And, Constraints: children}, nil
	case d.Or != nil:
		children, err := decodeNodes(d.Or, "or")
		if err != nil {
			return nil, err
		}
		return BooleanConstraint{Op: Or, Constraints: children}, nil
	case d.Link != nil:
		return LinkConstraint{Left: d.Link.Left, Right: d.Link.Right}, nil
	default:
		if d.Sort.Identity != "" && !IdentityComponent(d.Sort.Identity).Valid() {
			return nil, fmt.Errorf("unknown identity component %q", d.Sort.Identity)
		}
		return d.Sort.toSpec(), nil
	}
}

func (d typeDoc) toConstraint() (TypeConstraint, error) {
	tc := TypeConstraint{
		Alias:       d.Alias,
		PrimaryOnly: d.PrimaryOnly,
		ExactID:     d.ExactID,
		InstanceID:  normalizeValue(d.InstanceID),
	}
	for _, s := range d.Types {
		name, err := archetype.ParseTypeName(s)
		if err != nil {
			return TypeConstraint{}, err
		}
		tc.Types = append(tc.Types, name)
	}
	return tc, nil
}

func (d propertyDoc) toConstraint() (PropertyConstraint, error) {
	op := Operator(d.Op)
	if !op.Valid() {
		return PropertyConstraint{}, fmt.Errorf("property %q: unknown operator %q", d.Path, d.Op)
	}
	pc := PropertyConstraint{Alias: d.Alias, Path: d.Path, Op: op}
	for i, v := range d.Values {
		operand, err := decodeOperand(v)
		if err != nil {
			return PropertyConstraint{}, fmt.Errorf("property %q: values[%d]: %w", d.Path, i, err)
		}
		pc.Values = append(pc.Values, operand)
	}
	return pc, nil
}

func (d collectionDoc) toConstraint() (CollectionConstraint, error) {
	join := JoinKind(d.Join)
	if join.Keyword() == "" {
		return CollectionConstraint{}, fmt.Errorf("collection %q: unknown join kind %q", d.Relation, d.Join)
	}
	cc := CollectionConstraint{
		Source:   d.Source,
		Relation: d.Relation,
		Alias:    d.Alias,
		Join:     join,
	}
	if d.Type != nil {
		tc, err := d.Type.toConstraint()
		if err != nil {
			return CollectionConstraint{}, fmt.Errorf("collection %q: %w", d.Relation, err)
		}
		cc.Type = &tc
	}
	children, err := decodeNodes(d.Constraints, "constraints")
	if err != nil {
		return CollectionConstraint{}, fmt.Errorf("collection %q: %w", d.Relation, err)
	}
	cc.Constraints = children
	return cc, nil
}

func (d sortDoc) toSpec() SortSpec {
	return SortSpec{
		Alias:      d.Alias,
		Property:   d.Property,
		Identity:   IdentityComponent(d.Identity),
		Descending: d.Desc,
	}
}

// decodeOperand turns a decoded YAML value into an Operand.
// {bound: key} is a placeholder; scalars are literals.
func decodeOperand(v any) (Operand, error) {
	switch val := v.(type) {
	case map[string]any:
		key, ok := val["bound"].(string)
		if !ok || len(val) != 1 {
			return nil, fmt.Errorf("object operands must have the form {bound: key}")
		}
		return Placeholder{Key: key}, nil
	case []any:
		return nil, fmt.Errorf("list operands are not supported; use op: in")
	default:
		return Literal{Value: normalizeValue(val)}, nil
	}
}

// normalizeValue widens decoded integers to int64.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	default:
		return v
	}
}
