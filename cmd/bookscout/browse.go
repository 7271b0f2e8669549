package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Sternrassler/book-search-client/internal/tui"
	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/Sternrassler/book-search-client/pkg/navstate"
	"github.com/spf13/cobra"
)

func newBrowseCmd(opts *options) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search the catalog interactively",
		Long: `Opens an interactive terminal search. The last query and page are kept
in the navigation state file and restored on the next start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			// The alternate screen owns the terminal.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := openLogFile(logFile)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			logging.Setup(logging.Config{Level: logging.LogLevel(cfg.Log.Level), Output: out})

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			nav := navstate.NewSync(navstate.NewFileStore(cfg.State.File), navstate.DefaultSyncConfig())
			defer nav.Close()

			engCfg := a.engineConfig()
			engCfg.Navigator = nav
			e, err := engine.New(ctx, a.catalog, engCfg)
			if err != nil {
				return err
			}
			defer e.Close()

			return tui.Run(ctx, e)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the browser is open")

	return cmd
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
