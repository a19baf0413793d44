package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/facet/internal/facade"
)

// InfoOptions holds flags for the info command.
type InfoOptions struct {
	*RootOptions
	Table  string
	Filter string
	Limit  int
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InfoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "info <tables|columns|measures|relationships>",
		Short: "Query model metadata",
		Long: `Query model metadata through the engine's introspection functions.

With --table the results are scoped to one table, server-side when the
table's internal ID can be resolved and client-side otherwise. Results
produced by client-side filtering are marked as such.

Examples:
  facet info tables
  facet info columns --table Sales
  facet info measures --filter "[Name] = \"Total\""`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(opts, facade.InfoKind(args[0]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "scope results to one table")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "additional raw filter condition")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return (0 = unlimited)")

	return cmd
}

func runInfo(opts *InfoOptions, kind facade.InfoKind, cmd *cobra.Command) error {
	f, err := openFacade(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	res := f.ExecuteInfoQuery(cmd.Context(), kind, facade.InfoOptions{
		TableName:  opts.Table,
		FilterExpr: opts.Filter,
		RowLimit:   opts.Limit,
	})
	return formatter(opts.RootOptions, cmd).QueryResult(res)
}
