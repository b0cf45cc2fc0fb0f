package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/archetype"
)

// TypesOptions holds flags for the types command.
type TypesOptions struct {
	*RootOptions
	Source RegistrySource
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TypesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "types [pattern]",
		Short: "List registered archetypes",
		Long: `List the archetypes a query can name, optionally filtered by a type-name
pattern such as "party.*" or "openvpms-act.customer*".

Example:
  archq types --registry ./archetypes
  archq types --db ./archetypes.db 'party.*'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return runTypes(opts, pattern, cmd)
		},
	}

	opts.Source.addFlags(cmd)

	return cmd
}

func runTypes(opts *TypesOptions, pattern string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter.GetErrWriter())

	reg, err := opts.Source.Load(cmd.Context(), logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	schemas := reg.Schemas()
	if pattern != "" {
		name, err := archetype.ParseTypeName(pattern)
		if err != nil {
			return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeUnknownType, err: err})
		}
		if schemas, err = reg.Resolve(name); err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
	}

	if formatter.Format == "json" {
		if schemas == nil {
			schemas = []archetype.TypeSchema{}
		}
		return formatter.Success(schemas)
	}

	if len(schemas) == 0 {
		fmt.Fprintf(formatter.Writer, "No archetypes match %s\n", pattern)
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHETYPE\tSOURCE\tPRIMARY\tRELATIONS")
	for _, s := range schemas {
		relations := make([]string, len(s.Relations))
		for i, r := range s.Relations {
			relations[i] = r.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", s.Name, s.Source, s.Primary, strings.Join(relations, ","))
	}
	return tw.Flush()
}
