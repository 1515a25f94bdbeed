package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/internal/api"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Endpoints:
  GET  /health       liveness check
  GET  /api/version  build information
  POST /api/outline  annotate reverse dependencies
  POST /api/graph    compile an outline into a graph
  POST /api/layout   compute a positioned scene
  POST /api/render   render a single artifact

The cache backend (file, redis, none) comes from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	runner, err := c.newRunner(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := api.NewServer(runner, c.Logger, layoutDefaults(cfg.Layout))
	return srv.ListenAndServe(addr)
}
