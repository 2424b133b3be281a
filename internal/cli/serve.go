package cli

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/internal/api"
	"github.com/matzehuels/pomgraph/pkg/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

// serveOpts holds options for the serve command.
type serveOpts struct {
	envOpts
	addr string
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution API over HTTP",
		Long: `Serve exposes resolution and store queries over HTTP:

  GET  /healthz
  POST /v1/resolve                         {"coordinate": "g:a:v", "repoURL": "...", "dryRun": false}
  GET  /v1/nodes/{coordinate}
  GET  /v1/nodes/{coordinate}/uptodate?target=...
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	opts.envOpts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	e, err := c.openEnv(ctx, opts.envOpts)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	m := metrics.New(prometheus.NewRegistry())
	m.Install()

	addr := opts.addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return c.serve(ctx, ln, api.New(api.Config{
		Resolver:     e.resolver,
		Gateway:      e.gateway,
		RepoURL:      e.repoURL,
		CrawlVersion: e.cfg.Resolve.CrawlVersion,
		Metrics:      m.Handler(),
		Logger:       c.Logger,
	}).Handler())
}

// serve runs h on ln until ctx is done, then drains open requests.
func (c *CLI) serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	c.Logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}
