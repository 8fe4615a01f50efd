package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/recalc/internal/server"
	"github.com/matzehuels/recalc/pkg/engine"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command for exposing a graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		leafOnly bool
		steps    bool
	)

	cmd := &cobra.Command{
		Use:   "serve [manifest]",
		Short: "Serve a graph over HTTP",
		Long: `Build the manifest graph and serve it as JSON. GET /nodes returns every value,
GET /nodes/{name} one node, and PUT /nodes/{name} with {"value": x} applies an update.`,
		Example: `  recalc serve examples/invoice.toml --addr :8080
  curl -X PUT localhost:8080/nodes/quantity -d '{"value": 3}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []engine.Option
			if leafOnly {
				opts = append(opts, engine.WithLeafOnlyUpdates())
			}
			m, g, err := c.loadGraph(args[0], opts...)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			if steps {
				for _, s := range m.Steps {
					if err := g.Update(ctx, s.Node, s.Value); err != nil {
						return err
					}
				}
			}
			return c.runServe(ctx, addr, server.New(g, c.Logger))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().BoolVar(&leafOnly, "leaf-only", false, "reject updates of derived nodes")
	cmd.Flags().BoolVar(&steps, "steps", false, "apply the manifest steps before serving")

	return cmd
}

// runServe serves h on addr until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, addr string, h http.Handler) error {
	logger := loggerFromContext(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("Serving", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
