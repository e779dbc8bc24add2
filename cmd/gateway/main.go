// Command gateway runs the DOIT AI companion gateway as a local HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jans-saya/DOIT/internal/app"
	"github.com/jans-saya/DOIT/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	addr    string
	envFile string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "gateway",
		Short:         "HTTP gateway between the DOIT client and the Anthropic API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before the environment")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	for _, c := range []*cobra.Command{root, serve} {
		c.Flags().StringVar(&f.addr, "addr", "", "listen address (overrides GATEWAY_ADDR)")
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Probe the configured API key once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), f)
		},
	}

	root.AddCommand(serve, check)
	return root
}

func setup(ctx context.Context, f *flags) (*app.App, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	initLogger(cfg.Debug)
	cfg.LogWarnings()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to build gateway", "err", err)
		return nil, err
	}
	a.LogStatus()
	return a, nil
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runServe(parent context.Context, f *flags) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, f)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}()

	slog.Info("gateway listening", "addr", a.Config.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		return err
	}
	return nil
}

func runCheck(ctx context.Context, f *flags) error {
	a, err := setup(ctx, f)
	if err != nil {
		return err
	}
	out, err := a.Gateway.TestKey(ctx)
	if err != nil {
		slog.Error("API key check failed", "err", err)
		return err
	}
	slog.Info("API key is working", "response_preview", out.Preview)
	return nil
}
