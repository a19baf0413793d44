package cli

import (
	"github.com/spf13/cobra"
)

// TableOptions holds flags for the table command.
type TableOptions struct {
	*RootOptions
	Rows int
}

// NewTableCommand creates the table command.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TableOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "table <name>",
		Short: "Fetch rows from a table by name",
		Long: `Fetch rows from a table, trying each reference form in order
(quoted, bare, bracketed) until the engine accepts one. The winning form
is reported with the result.

Examples:
  facet table Sales
  facet table "Sales Orders" --rows 50`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Rows, "rows", 100, "maximum rows to fetch")

	return cmd
}

func runTable(opts *TableOptions, name string, cmd *cobra.Command) error {
	f, err := openFacade(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	res := f.ExecuteWithTableFallback(cmd.Context(), name, opts.Rows)
	return formatter(opts.RootOptions, cmd).QueryResult(res)
}
