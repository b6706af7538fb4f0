// Package middleware provides HTTP middleware for request identity, logging
// and metrics.
package middleware

// contextKey is a private type for context keys to avoid collisions
type contextKey string
