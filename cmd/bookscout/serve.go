package main

import (
	"github.com/Sternrassler/book-search-client/internal/server"
	"github.com/Sternrassler/book-search-client/pkg/batch"
	"github.com/Sternrassler/book-search-client/pkg/shelf"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Starts the bookscout HTTP API: search sessions, curated shelves and,
when a JWT secret is configured, the personal library.`,
		Example: `  # Start server on the configured port (default 8080)
  bookscout serve

  # Start server on custom port
  bookscout serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg
			if port != "" {
				cfg.Server.Port = port
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			shelves, err := a.shelves()
			if err != nil {
				return err
			}
			verifier, err := a.verifier()
			if err != nil {
				return err
			}

			deps := server.Deps{
				Searcher: a.catalog,
				Shelves:  shelves,
				Verifier: verifier,
				Redis:    a.redis,
			}
			if verifier != nil {
				library, err := a.library(ctx)
				if err != nil {
					return err
				}
				deps.Library = library
				deps.Resolver = shelf.NewResolver(a.catalog, batch.DefaultConfig())
			} else {
				a.logger.Warn().Msg("No JWT secret configured - library endpoints disabled")
			}

			srvCfg := server.DefaultConfig()
			srvCfg.Addr = ":" + cfg.Server.Port
			srvCfg.SessionTTL = cfg.Server.SessionTTL
			srvCfg.MaxSessions = cfg.Server.MaxSessions
			srvCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
			srvCfg.Engine = a.engineConfig()

			srv, err := server.New(srvCfg, deps)
			if err != nil {
				return err
			}

			a.logger.Info().
				Str("addr", srvCfg.Addr).
				Str("provider", a.catalog.Provider()).
				Str("shelf_backend", cfg.Shelf.Backend).
				Msg("Starting bookscout server")

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}
