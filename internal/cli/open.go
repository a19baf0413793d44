package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/facet/internal/config"
	"github.com/roach88/facet/internal/facade"
	"github.com/roach88/facet/internal/tabular"
)

// openFacade loads configuration, opens the engine connection, and builds
// a facade for one command invocation. Config and connection problems are
// command errors, not query failures.
func openFacade(opts *RootOptions, cmd *cobra.Command) (*facade.Facade, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}

	conn, err := openConnection(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connecting to engine", err)
	}

	f := facade.New(conn,
		facade.WithLogger(newLogger(opts.Verbose, cmd.ErrOrStderr())),
		facade.WithCacheTTL(cfg.CacheTTL()),
		facade.WithCacheSize(cfg.Cache.MaxItems),
		facade.WithCommandTimeout(cfg.CommandTimeout()),
		facade.WithRowCap(cfg.Engine.RowCap),
	)
	return f, nil
}

func openConnection(cfg config.Config) (tabular.Connection, error) {
	switch cfg.Engine.Driver {
	case "sqlite3":
		return tabular.OpenLocalEngine(cfg.Engine.DSN)
	default:
		return nil, fmt.Errorf("unsupported engine driver %q", cfg.Engine.Driver)
	}
}

// newLogger builds the command's slog logger. Diagnostics go to stderr so
// JSON output on stdout stays parseable.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// formatter builds the OutputFormatter for one command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
