package usecase

import (
	"context"
	"log/slog"

	"github.com/jans-saya/DOIT/internal/domain"
)

const (
	probeMaxTokens = 10
	probePrompt    = "test"
)

// Probe issues the minimal-cost call that checks the key is accepted.
func Probe(ctx context.Context, llm LLMClient, model string) error {
	if model == "" {
		model = DefaultModel
	}
	_, err := llm.CreateMessage(ctx, domain.CompletionRequest{
		Model:     model,
		MaxTokens: probeMaxTokens,
		Messages:  []domain.ChatMessage{domain.TextMessage("user", probePrompt)},
	})
	return err
}

// VerifyClient runs the startup probe and returns llm when it succeeds, nil
// otherwise. The process keeps running either way so /api/health can report
// the outcome.
func VerifyClient(ctx context.Context, llm LLMClient, model string) LLMClient {
	if llm == nil {
		return nil
	}
	err := Probe(ctx, llm, model)
	if err == nil {
		slog.Info("API key validation successful")
		return llm
	}
	if pe, ok := domain.AsProviderError(err); ok && pe.Kind == domain.ProviderAuthentication {
		slog.Error("API key is invalid - please check your key", "err", err)
		return nil
	}
	slog.Error("API key test failed", "err", err)
	return nil
}
