package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"novellens/internal/logging"
	mcpserver "novellens/internal/mcp"
)

func newServeCmd(st *cliState) *cobra.Command {
	var flags struct {
		metricsAddr string
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing the analysis tools.
All tool calls share one artifact cache for the lifetime of the process.

The server exits when its parent process goes away. With --metrics-addr it
also serves Prometheus metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := flags.metricsAddr
			if addr == "" {
				addr = st.cfg.Metrics.Addr
			}
			return runServe(cmd.Context(), st, addr)
		},
	}
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, st *cliState, metricsAddr string) error {
	srv := mcpserver.NewServer(st.store, st.qa, version)
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logger := logging.New("serve")
	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(st.registry, promhttp.HandlerOpts{}))
		hs := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		logger.Info("serving metrics", "addr", ln.Addr().String())
		g.Go(func() error {
			if err := hs.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer done()
			return hs.Shutdown(shutdownCtx)
		})
	}

	logger.Info("starting novellens MCP server over stdio (parent watchdog active)", "base_url", st.cfg.BaseURL)
	g.Go(func() error {
		defer cancel()
		return srv.MCPServer.Run(gctx, &sdkmcp.StdioTransport{})
	})
	return g.Wait()
}
