package middleware

import (
	"context"
	"net/http"
	"time"
)

// Request size and time limits. The API only ever receives small JSON bodies
// (a book ID, a user ID), so the body cap is deliberately tight.
const (
	// MaxBodyBytes caps request bodies at 64KB
	MaxBodyBytes = 64 * 1024

	// DefaultRequestTimeout bounds request processing end to end. Longer than
	// the gateway call timeout so the gateway error surfaces first.
	DefaultRequestTimeout = 30 * time.Second
)

// MaxBodySize limits the size of request bodies.
// If the request body exceeds maxBytes, the handler's body read fails and
// oversized declared lengths are rejected with 413 up front.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout adds a deadline to the request context. Handlers and the gateway
// client observe the deadline through context cancellation; a request that
// overruns answers 503 through the gateway error mapping.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
