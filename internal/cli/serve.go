package cli

import (
	"github.com/spf13/cobra"

	"github.com/pindown/pindown/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run lint and check as an HTTP API",
		Long: `Serve exposes manifest linting and index checking over HTTP:

  GET  /healthz     liveness probe
  POST /v1/lint     manifest text in, findings out
  POST /v1/check    manifest text in, check report out
  GET  /v1/history  recent check runs

The server runs until interrupted and shuts down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr != "" {
				c.cfg.Server.Addr = addr
			}

			backend := c.newBackend(ctx)
			defer backend.Close()

			store, err := c.newHistoryStore(ctx)
			if err != nil {
				c.Logger.Warn("history store unavailable, continuing without", "err", err)
				store = nil
			} else {
				defer store.Close(ctx)
			}

			return server.New(c.cfg, c.Logger, backend, store).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
