// Package middleware holds small chi-compatible HTTP middleware shared by
// the operation surface, grounded on the teacher's internal/middleware.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// RequestIDKey is the context key RequestID stores the correlation ID
// under. Operation-chain spans and log lines use this ID (spec §8's
// ambient stack), not element identity, which stays caller-supplied.
const RequestIDKey contextKey = "requestID"

// RequestID generates (or forwards) a correlation ID for every request,
// attaching it to the request context and echoing it back as a response
// header — the same shape as the teacher's request-ID middleware, reused
// here for operation chains instead of memory/category CRUD calls.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext extracts the correlation ID set by RequestID, or "" if none.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
