// Package app wires configuration, provider client, usage ledger and HTTP
// handler together. Both the local server and the Lambda entry point use it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/jans-saya/DOIT/handler"
	"github.com/jans-saya/DOIT/internal/config"
	"github.com/jans-saya/DOIT/internal/integrations/anthropic"
	"github.com/jans-saya/DOIT/internal/integrations/paramstore"
	"github.com/jans-saya/DOIT/internal/repository"
	"github.com/jans-saya/DOIT/internal/usecase"
)

type App struct {
	Config  *config.Config
	Gateway *usecase.Gateway
	Handler *handler.Handler

	apiKey      string
	clientReady bool
}

type options struct {
	params paramstore.Getter
	usage  usecase.UsageRecorder
}

// Option replaces an AWS-backed dependency, mainly for tests.
type Option func(*options)

func WithParamGetter(g paramstore.Getter) Option {
	return func(o *options) { o.params = g }
}

func WithUsageRecorder(r usecase.UsageRecorder) Option {
	return func(o *options) { o.usage = r }
}

// New builds the application. Provider problems never fail startup: the
// gateway comes up with an absent client and reports it through /api/health.
// Only a configured usage ledger that cannot be reached is fatal.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config must not be nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var (
		awsCfg    aws.Config
		awsLoaded bool
	)
	loadAWS := func() (aws.Config, error) {
		if awsLoaded {
			return awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg, awsLoaded = c, true
		return awsCfg, nil
	}

	apiKey := resolveAPIKey(ctx, cfg, o.params, loadAWS)

	var llm usecase.LLMClient
	if apiKey == "" {
		slog.Error("ANTHROPIC_API_KEY is not configured; AI service will be unavailable")
	} else if client, err := anthropic.NewClient(apiKey,
		anthropic.WithBaseURL(cfg.BaseURL),
		anthropic.WithTimeout(cfg.Timeout),
	); err != nil {
		slog.Error("failed to initialize Anthropic client", "err", err)
	} else {
		slog.Info("Anthropic client initialized")
		llm = usecase.VerifyClient(ctx, client, cfg.Model)
	}

	usage := o.usage
	if usage == nil && cfg.UsageTable != "" {
		ac, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ledger, err := repository.New(awsdynamodb.NewFromConfig(ac), cfg.UsageTable)
		if err != nil {
			return nil, fmt.Errorf("app: create usage ledger: %w", err)
		}
		usage = ledger
	}

	gatewayOpts := []usecase.Option{usecase.WithModel(cfg.Model)}
	if usage != nil {
		gatewayOpts = append(gatewayOpts, usecase.WithUsageRecorder(usage))
	}
	gw := usecase.NewGateway(llm, apiKey, gatewayOpts...)

	h, err := handler.NewHandler(gw,
		handler.WithAllowedOrigins(cfg.AllowedOrigins),
		handler.WithRequestLogging(cfg.Debug),
	)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}

	return &App{
		Config:      cfg,
		Gateway:     gw,
		Handler:     h,
		apiKey:      apiKey,
		clientReady: llm != nil,
	}, nil
}

// resolveAPIKey prefers the environment key and falls back to SSM. A lookup
// failure yields "" so the gateway starts without a provider client.
func resolveAPIKey(ctx context.Context, cfg *config.Config, params paramstore.Getter, loadAWS func() (aws.Config, error)) string {
	if cfg.APIKey != "" || cfg.APIKeyParam == "" {
		return cfg.APIKey
	}
	if params == nil {
		ac, err := loadAWS()
		if err != nil {
			slog.Error("failed to load AWS config for API key lookup", "err", err)
			return ""
		}
		client, err := paramstore.New(awsssm.NewFromConfig(ac))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			return ""
		}
		params = client
	}
	key, err := paramstore.APIKey(ctx, params, cfg.APIKeyParam)
	if err != nil {
		slog.Error("failed to read API key from parameter store", "param", cfg.APIKeyParam, "err", err)
		return ""
	}
	return key
}

// LogStatus emits the startup banner.
func (a *App) LogStatus() {
	keyStatus := "missing"
	if usecase.KeyLooksConfigured(a.apiKey) {
		keyStatus = "configured"
	}
	clientStatus := "failed"
	if a.clientReady {
		clientStatus = "ready"
	}
	slog.Info("DOIT AI Companion gateway",
		"api_key", keyStatus,
		"anthropic_client", clientStatus,
		"model", a.Gateway.Model(),
		"usage_ledger", a.Config.UsageTable != "",
	)
	if !a.clientReady {
		slog.Warn("API key is invalid or missing; /api/chat will answer 503",
			"fix", "get a key from https://console.anthropic.com/ and set ANTHROPIC_API_KEY (or ANTHROPIC_API_KEY_PARAM)")
	}
}
