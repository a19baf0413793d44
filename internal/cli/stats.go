package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show result cache configuration and counters",
		Long: `Show the result cache configuration and counters for a fresh facade.

Counters are per-process, so from the CLI this mainly reports the
effective configuration; a long-lived embedding sees live hit/miss
numbers.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	f, err := openFacade(opts, cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	stats := f.CacheStats()
	out := formatter(opts, cmd)
	if out.Format == "json" {
		return out.Success(stats)
	}

	fmt.Fprintf(out.Writer, "ttl_seconds: %d\n", stats.TTLSeconds)
	fmt.Fprintf(out.Writer, "max_items:   %d\n", stats.MaxItems)
	fmt.Fprintf(out.Writer, "size:        %d\n", stats.Size)
	fmt.Fprintf(out.Writer, "hits:        %d\n", stats.Hits)
	fmt.Fprintf(out.Writer, "misses:      %d\n", stats.Misses)
	fmt.Fprintf(out.Writer, "bypassed:    %d\n", stats.Bypassed)
	return nil
}
