package cli

import (
	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Limit       int
	BypassCache bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "Execute a query expression",
		Long: `Execute a query expression against the configured engine.

The expression is rewritten into canonical form before execution: table
expressions get a row limit, scalar expressions are wrapped into a
single-cell projection, and text already starting with EVALUATE passes
through unchanged.

Examples:
  facet query "'Sales'" --limit 20
  facet query "1+1"
  facet query "EVALUATE TOPN(5, 'Sales')" --bypass-cache`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "row limit applied when rewriting table expressions")
	cmd.Flags().BoolVar(&opts.BypassCache, "bypass-cache", false, "skip the result cache for this call")

	return cmd
}

func runQuery(opts *QueryOptions, expression string, cmd *cobra.Command) error {
	f, err := openFacade(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	res := f.Execute(cmd.Context(), expression, opts.Limit, opts.BypassCache)
	return formatter(opts.RootOptions, cmd).QueryResult(res)
}
