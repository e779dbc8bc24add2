package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"

type correlationKey struct{}

// correlation reuses the caller's X-Correlation-Id or assigns a new one, and
// echoes it on the response.
func correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = newUUID()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

// CorrelationID returns the id assigned to the request, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

var newUUID = func() string {
	return uuid.NewString()
}
