// Package handler exposes the gateway over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jans-saya/DOIT/internal/domain"
	"github.com/jans-saya/DOIT/internal/usecase"
)

const maxBodyBytes = 10 << 20

type Gateway interface {
	Chat(ctx context.Context, in usecase.ChatInput) (domain.Completion, error)
	Health() usecase.HealthStatus
	TestKey(ctx context.Context) (usecase.KeyTestOutput, error)
}

type chatResponse struct {
	ID         string                `json:"id"`
	Model      string                `json:"model"`
	Content    []domain.ContentBlock `json:"content"`
	Role       string                `json:"role"`
	StopReason string                `json:"stop_reason"`
	Usage      domain.Usage          `json:"usage"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status           string `json:"status"`
	AnthropicClient  bool   `json:"anthropic_client"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

type keyTestResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message,omitempty"`
	ResponsePreview string `json:"response_preview,omitempty"`
	Error           string `json:"error,omitempty"`
}

// errorMapping is how one use-case error code is presented to callers.
// An empty details with detailFromError set uses the error's own detail.
type errorMapping struct {
	status          int
	summary         string
	details         string
	detailFromError bool
}

var chatErrors = map[usecase.ErrorCode]errorMapping{
	usecase.ErrorUnavailable:    {status: http.StatusServiceUnavailable, summary: "AI service not available", details: "API key is invalid or not configured"},
	usecase.ErrorNoData:         {status: http.StatusBadRequest, summary: "No data provided"},
	usecase.ErrorNoMessages:     {status: http.StatusBadRequest, summary: "No messages provided"},
	usecase.ErrorAuthentication: {status: http.StatusUnauthorized, summary: "Authentication failed", details: "Invalid API key - please check your Anthropic API key"},
	usecase.ErrorRateLimited:    {status: http.StatusTooManyRequests, summary: "Rate limit exceeded", details: "Too many requests"},
	usecase.ErrorUpstream:       {status: http.StatusInternalServerError, summary: "AI service error", detailFromError: true},
	usecase.ErrorInternal:       {status: http.StatusInternalServerError, summary: "Internal server error", detailFromError: true},
}

type Handler struct {
	gateway        Gateway
	allowedOrigins []string
	requestLogging bool
	router         chi.Router
}

type Option func(*Handler)

// WithAllowedOrigins sets the CORS allow-list. The default allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		if len(origins) > 0 {
			h.allowedOrigins = origins
		}
	}
}

func WithRequestLogging(enabled bool) Option {
	return func(h *Handler) {
		h.requestLogging = enabled
	}
}

func NewHandler(g Gateway, opts ...Option) (*Handler, error) {
	if g == nil {
		return nil, errors.New("handler: gateway must not be nil")
	}
	h := &Handler{
		gateway:        g,
		allowedOrigins: []string{"*"},
		requestLogging: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.buildRouter()
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(correlation)
	if h.requestLogging {
		r.Use(requestLogger)
	}
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", correlationHeader},
		ExposedHeaders: []string{correlationHeader},
		MaxAge:         300,
	}))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.handleChat)
		r.Get("/health", h.handleHealth)
		r.Get("/test-key", h.handleTestKey)
	})
	return r
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := CorrelationID(ctx)
	slog.InfoContext(ctx, "received chat request", "correlation_id", corrID)

	// A read failure leaves a truncated body, which the use case rejects as no data.
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))

	completion, err := h.gateway.Chat(ctx, usecase.ChatInput{Body: body, CorrelationID: corrID})
	if err != nil {
		h.writeChatError(ctx, w, err)
		return
	}

	slog.InfoContext(ctx, "chat completion succeeded", "correlation_id", corrID, "id", completion.ID)
	writeJSON(w, http.StatusOK, toChatResponse(completion))
}

func toChatResponse(c domain.Completion) chatResponse {
	text, _ := c.FirstText()
	return chatResponse{
		ID:         c.ID,
		Model:      c.Model,
		Content:    []domain.ContentBlock{{Type: "text", Text: text}},
		Role:       c.Role,
		StopReason: c.StopReason,
		Usage:      c.Usage,
	}
}

func (h *Handler) writeChatError(ctx context.Context, w http.ResponseWriter, err error) {
	corrID := CorrelationID(ctx)

	var usecaseErr *usecase.Error
	if !errors.As(err, &usecaseErr) {
		usecaseErr = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected", Err: err}
	}
	mapping, ok := chatErrors[usecaseErr.Code]
	if !ok {
		mapping = chatErrors[usecase.ErrorInternal]
	}

	attrs := []any{"code", usecaseErr.Code, "reason", usecaseErr.Reason, "err", err, "correlation_id", corrID}
	switch {
	case usecaseErr.Code == usecase.ErrorInternal:
		slog.ErrorContext(ctx, "unexpected chat error", append(attrs, "stack", string(debug.Stack()))...)
	case mapping.status >= http.StatusInternalServerError, mapping.status == http.StatusUnauthorized, mapping.status == http.StatusTooManyRequests:
		slog.ErrorContext(ctx, "chat request failed", attrs...)
	default:
		slog.WarnContext(ctx, "chat request rejected", attrs...)
	}

	details := mapping.details
	if mapping.detailFromError {
		details = usecaseErr.Detail()
	}
	writeJSON(w, mapping.status, errorResponse{Error: mapping.summary, Details: details})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := h.gateway.Health()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           st.Status,
		AnthropicClient:  st.ClientReady,
		APIKeyConfigured: st.KeyConfigured,
	})
}

func (h *Handler) handleTestKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.gateway.TestKey(ctx)
	if err == nil {
		writeJSON(w, http.StatusOK, keyTestResponse{
			Status:          "success",
			Message:         "API key is working",
			ResponsePreview: out.Preview,
		})
		return
	}

	var usecaseErr *usecase.Error
	if errors.As(err, &usecaseErr) && usecaseErr.Code == usecase.ErrorUnavailable {
		writeJSON(w, http.StatusInternalServerError, keyTestResponse{Status: "failed", Error: "Client not initialized"})
		return
	}

	msg := err.Error()
	if usecaseErr != nil {
		msg = usecaseErr.Detail()
	}
	slog.WarnContext(ctx, "key test failed", "err", err, "correlation_id", CorrelationID(ctx))
	writeJSON(w, http.StatusBadRequest, keyTestResponse{Status: "failed", Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
