package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the archq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "archq",
		Short: "archq - archetype query compiler",
		Long: `Compile type-polymorphic constraint trees over archetype descriptors
into object-query text with ordered named parameters.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewLintCommand(opts))
	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewDescriptorsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// logger returns a debug-level text logger on w when verbose, otherwise one
// that discards everything.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// formatter builds the OutputFormatter for cmd. Diagnostics go to stderr so
// JSON on stdout stays parseable.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
