package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/config"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/devserver"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/mcp"
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Serve a fixture SmartShop backend for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDevServer()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the store to MCP hosts over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer()
	},
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func runDevServer() error {
	fmt.Fprintf(os.Stderr, "smartshop version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := devserver.New(logger)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Dev.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: ds.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "dev server listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCPServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newShopClient()
	if err != nil {
		return err
	}

	mcpSrv := mcp.NewServer(client, version)
	stdioSrv := server.NewStdioServer(mcpSrv)

	slog.Info("MCP server started (stdio transport)", "backend", client.BaseURL())
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
