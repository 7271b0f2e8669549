package main

import (
	"github.com/Sternrassler/book-search-client/internal/config"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options carries what the root command resolved for its subcommands.
type options struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bookscout",
		Short: "Search and browse a remote book catalog",
		Long: `Bookscout searches a remote book catalog with incremental, paginated
results. It runs as an HTTP API server, as a one-shot command line search or
as an interactive terminal browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.Log.Level),
				Pretty: cfg.Log.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newShelvesCmd(opts),
		newBrowseCmd(opts),
	)

	return cmd
}
