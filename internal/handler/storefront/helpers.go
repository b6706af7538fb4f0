// Package storefront exposes the JSON API the browser frontend consumes:
// catalogue resolution, cart operations and checkout.
package storefront

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/middleware"
)

// errorResponse is the uniform error body every endpoint answers.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps a domain error to an HTTP status and writes the uniform
// error body. Internal errors are logged with full detail but answered with a
// generic message. Logging goes through the request-scoped logger when one is
// in the context.
func respondError(w http.ResponseWriter, r *http.Request, fallback *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	status := statusForCode(code)

	if status >= 500 {
		logger := middleware.GetLogger(r.Context(), fallback)
		logger.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	}

	respondJSON(w, status, errorResponse{Error: errorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}})
}

func statusForCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	case domain.EUPSTREAM:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into dst. Returns a domain validation
// error on malformed input.
func decodeBody(r *http.Request, op string, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid(op, "invalid JSON request body")
	}
	return nil
}
