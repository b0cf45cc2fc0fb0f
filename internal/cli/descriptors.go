package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/descriptor"
)

// StoreOptions holds flags for commands that manage a descriptor store.
type StoreOptions struct {
	*RootOptions
	DB     string
	Driver string
}

// ImportResult summarises a descriptors import.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Archetypes []string `json:"archetypes"`
}

// DeleteResult reports a descriptors delete.
type DeleteResult struct {
	Archetype string `json:"archetype"`
	Deleted   bool   `json:"deleted"`
}

// NewDescriptorsCommand creates the descriptors command group.
func NewDescriptorsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descriptors",
		Short: "Manage archetype descriptors in a descriptor store",
	}

	cmd.AddCommand(newDescriptorsImportCommand(rootOpts))
	cmd.AddCommand(newDescriptorsExportCommand(rootOpts))
	cmd.AddCommand(newDescriptorsDeleteCommand(rootOpts))

	return cmd
}

func newStoreCommand(opts *StoreOptions, cmd *cobra.Command) *cobra.Command {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	addStoreFlags(cmd, &opts.DB, &opts.Driver)
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newDescriptorsImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	return newStoreCommand(opts, &cobra.Command{
		Use:   "import <path>",
		Short: "Load descriptors from files into a descriptor store",
		Long: `Load CUE, YAML or JSON descriptors from a file or directory and save them
in a descriptor store. Archetypes already stored under the same identifier
are replaced.

Example:
  archq descriptors import --db ./archetypes.db ./archetypes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescriptorsImport(opts, args[0], cmd)
		},
	})
}

func runDescriptorsImport(opts *StoreOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter.GetErrWriter())

	reg, err := descriptor.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	schemas := reg.Schemas()

	st, err := openStore(opts.Driver, opts.DB, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	if err := st.Save(cmd.Context(), schemas...); err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeStore, err: err})
	}

	result := ImportResult{Imported: len(schemas), Archetypes: make([]string, len(schemas))}
	for i, s := range schemas {
		result.Archetypes[i] = s.Name.String()
		formatter.VerboseLog("Imported %s", s.Name)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d archetype(s) into %s\n", result.Imported, opts.DB)
	return nil
}

func newDescriptorsExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}
	var output string

	cmd := newStoreCommand(opts, &cobra.Command{
		Use:   "export",
		Short: "Write stored descriptors as a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescriptorsExport(opts, output, cmd)
		},
	})
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default stdout)")

	return cmd
}

func runDescriptorsExport(opts *StoreOptions, output string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter.GetErrWriter())

	st, err := openStore(opts.Driver, opts.DB, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	schemas, err := st.Load(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeStore, err: err})
	}

	var buf bytes.Buffer
	if err := descriptor.EncodeYAML(&buf, schemas); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if output == "" {
		_, err := formatter.Writer.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeWriteFailed, err: err})
	}
	formatter.VerboseLog("Wrote %d archetype(s) to %s", len(schemas), output)
	return nil
}

func newDescriptorsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	return newStoreCommand(opts, &cobra.Command{
		Use:   "delete <archetype>",
		Short: "Remove one archetype from a descriptor store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescriptorsDelete(opts, args[0], cmd)
		},
	})
}

func runDescriptorsDelete(opts *StoreOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter.GetErrWriter())

	name, err := archetype.ParseTypeName(arg)
	if err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeInvalidDescriptor, err: err})
	}

	st, err := openStore(opts.Driver, opts.DB, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	deleted, err := st.Delete(cmd.Context(), name)
	if err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeStore, err: err})
	}

	result := DeleteResult{Archetype: name.String(), Deleted: deleted}
	switch {
	case formatter.Format == "json":
		if err := formatter.Success(result); err != nil {
			return err
		}
	case deleted:
		fmt.Fprintf(formatter.Writer, "✓ Deleted %s\n", result.Archetype)
	default:
		fmt.Fprintf(formatter.Writer, "%s is not stored\n", result.Archetype)
	}

	if !deleted {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not stored", result.Archetype))
	}
	return nil
}
