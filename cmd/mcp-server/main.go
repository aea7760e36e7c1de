package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/tsilva/sandbox-fastmcp/internal/config"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/mcp"
	"github.com/tsilva/sandbox-fastmcp/internal/tracing"
	"github.com/tsilva/sandbox-fastmcp/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:     "mcp-server",
		Short:   "Weights & Biases MCP server",
		Version: version.Version,
		RunE:    run,
	}

	root.PersistentFlags().String(config.KeyTransport, "stdio", "Transport to serve: stdio or http")
	root.PersistentFlags().String(config.KeyHost, "0.0.0.0", "HTTP host")
	root.PersistentFlags().Int(config.KeyPort, 8000, "HTTP port")
	root.PersistentFlags().String(config.KeyHTTPEndpoint, mcp.DefaultEndpoint, "HTTP path of the MCP endpoint")
	root.PersistentFlags().String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error")
	root.PersistentFlags().String(config.KeyOTelEndpoint, "", "OTLP/HTTP collector endpoint; empty disables tracing")

	config.Init(root)

	if err := root.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.NewFromLevel(config.LogLevel())).WithName(version.ServerName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, config.OTelEndpoint(), version.ServerName, version.Version, config.OTelInsecure())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn(err, "tracing shutdown failed")
		}
	}()

	srv := mcp.New(mcp.DefaultConfig(logger))

	switch transport := config.Transport(); transport {
	case "stdio":
		logger.Info("serving MCP over stdio")
		return server.ServeStdio(srv.MCP)
	case "http":
		return serveHTTP(ctx, srv, logger)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
	}
}

func serveHTTP(ctx context.Context, srv *mcp.Server, logger logging.Logger) error {
	addr := config.Host() + ":" + strconv.Itoa(config.Port())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("MCP server listening", "addr", addr, "endpoint", config.HTTPEndpoint())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
