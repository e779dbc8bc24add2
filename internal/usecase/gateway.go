package usecase

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/jans-saya/DOIT/internal/domain"
)

const (
	DefaultModel        = "claude-3-5-sonnet-20241022"
	DefaultSystemPrompt = "You are a helpful AI assistant."

	chatMaxTokens    = 1000
	keyTestMaxTokens = 50
	keyTestPrompt    = "Hello"
	previewLength    = 50
	previewSuffix    = "..."
	minKeyLength     = 20

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

var errNoContent = errors.New("usecase: provider response has no content")

type LLMClient interface {
	CreateMessage(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error)
}

type UsageRecorder interface {
	RecordCompletion(ctx context.Context, correlationID string, completion domain.Completion) error
}

// Gateway serves the chat, health and key-test operations over one provider
// client. A nil client means the provider is unavailable for the lifetime of
// the process.
type Gateway struct {
	llm           LLMClient
	model         string
	keyConfigured bool
	usage         UsageRecorder
}

type Option func(*Gateway)

func WithModel(model string) Option {
	return func(g *Gateway) {
		if model != "" {
			g.model = model
		}
	}
}

// WithUsageRecorder enables the usage ledger.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(g *Gateway) {
		g.usage = r
	}
}

type ChatInput struct {
	Body          []byte
	CorrelationID string
}

type HealthStatus struct {
	Status        string
	ClientReady   bool
	KeyConfigured bool
}

type KeyTestOutput struct {
	Preview string
}

// NewGateway builds the service. llm may be nil when the provider client could
// not be created or failed its startup probe.
func NewGateway(llm LLMClient, apiKey string, opts ...Option) *Gateway {
	g := &Gateway{
		llm:           llm,
		model:         DefaultModel,
		keyConfigured: KeyLooksConfigured(apiKey),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// KeyLooksConfigured is the only key validation performed: non-empty and
// longer than 20 characters.
func KeyLooksConfigured(apiKey string) bool {
	return len(apiKey) > minKeyLength
}

func (g *Gateway) Model() string {
	return g.model
}

// Chat validates the payload and forwards it to the provider once.
func (g *Gateway) Chat(ctx context.Context, in ChatInput) (domain.Completion, error) {
	if g.llm == nil {
		return domain.Completion{}, newError(ErrorUnavailable, "client_not_initialized", nil)
	}
	req, perr := parseChatRequest(in.Body)
	if perr != nil {
		return domain.Completion{}, perr
	}

	slog.InfoContext(ctx, "processing chat request", "messages", len(req.Messages), "correlation_id", in.CorrelationID)

	completion, err := g.llm.CreateMessage(ctx, domain.CompletionRequest{
		Model:     g.model,
		MaxTokens: chatMaxTokens,
		System:    req.System,
		Messages:  req.Messages,
	})
	if err != nil {
		return domain.Completion{}, providerError("chat_completion_error", err)
	}
	if len(completion.Content) == 0 {
		return domain.Completion{}, newError(ErrorInternal, "empty_completion", errNoContent)
	}

	if g.usage != nil {
		if err := g.usage.RecordCompletion(ctx, in.CorrelationID, completion); err != nil {
			slog.WarnContext(ctx, "failed to record usage", "err", err, "correlation_id", in.CorrelationID)
		}
	}
	return completion, nil
}

// Health reports process-wide provider state. It never fails.
func (g *Gateway) Health() HealthStatus {
	status := statusUnhealthy
	if g.llm != nil {
		status = statusHealthy
	}
	return HealthStatus{
		Status:        status,
		ClientReady:   g.llm != nil,
		KeyConfigured: g.keyConfigured,
	}
}

// TestKey issues the manual diagnostic probe and returns a preview of the reply.
func (g *Gateway) TestKey(ctx context.Context) (KeyTestOutput, error) {
	if g.llm == nil {
		return KeyTestOutput{}, newError(ErrorUnavailable, "client_not_initialized", nil)
	}
	completion, err := g.llm.CreateMessage(ctx, domain.CompletionRequest{
		Model:     g.model,
		MaxTokens: keyTestMaxTokens,
		Messages:  []domain.ChatMessage{domain.TextMessage("user", keyTestPrompt)},
	})
	if err != nil {
		return KeyTestOutput{}, providerError("key_test_error", err)
	}
	text, ok := completion.FirstText()
	if !ok {
		return KeyTestOutput{}, newError(ErrorInternal, "empty_completion", errNoContent)
	}
	return KeyTestOutput{Preview: preview(text)}, nil
}

// preview keeps the first previewLength characters and always appends the suffix.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text + previewSuffix
	}
	return string([]rune(text)[:previewLength]) + previewSuffix
}
