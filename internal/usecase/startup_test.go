package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jans-saya/DOIT/internal/domain"
)

func TestProbe_UsesMinimalRequest(t *testing.T) {
	llm := &mockLLM{out: completionWithText("ok")}
	require.NoError(t, Probe(context.Background(), llm, ""))
	require.Equal(t, DefaultModel, llm.last.Model)
	require.Equal(t, 10, llm.last.MaxTokens)
	require.Equal(t, []domain.ChatMessage{domain.TextMessage("user", "test")}, llm.last.Messages)
}

func TestVerifyClient(t *testing.T) {
	ok := &mockLLM{out: completionWithText("ok")}
	require.Equal(t, LLMClient(ok), VerifyClient(context.Background(), ok, DefaultModel))

	authFail := &mockLLM{err: &domain.ProviderError{Kind: domain.ProviderAuthentication, StatusCode: http.StatusUnauthorized}}
	require.Nil(t, VerifyClient(context.Background(), authFail, DefaultModel))

	otherFail := &mockLLM{err: errors.New("dial tcp: connection refused")}
	require.Nil(t, VerifyClient(context.Background(), otherFail, DefaultModel))

	require.Nil(t, VerifyClient(context.Background(), nil, DefaultModel))
}
