// Command lambda serves the gateway routes behind API Gateway.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jans-saya/DOIT/handler"
	"github.com/jans-saya/DOIT/internal/app"
	"github.com/jans-saya/DOIT/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	cfg.LogWarnings()

	// ---- Gateway ----
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to build gateway", "err", err)
		os.Exit(1)
	}
	a.LogStatus()

	adapter, err := handler.NewLambdaAdapter(a.Handler)
	if err != nil {
		slog.Error("failed to create lambda adapter", "err", err)
		os.Exit(1)
	}

	lambda.Start(adapter.Handle)
}
