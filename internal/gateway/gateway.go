// Package gateway implements the backend gateway envelope: every call to the
// catalogue and payments services is a POST to a single endpoint carrying the
// real HTTP method, query parameters and body inside one JSON wrapper.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relatosdepapel/storefront/internal/domain"
)

// Client executes gateway envelope requests.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Config holds gateway client settings.
type Config struct {
	// BaseURL is the gateway origin; a trailing slash is stripped.
	BaseURL string

	// Timeout bounds each call. Zero means the 10s default.
	Timeout time.Duration
}

// envelope is the outer request the gateway translates into the real call.
type envelope struct {
	TargetMethod string              `json:"targetMethod"`
	QueryParams  map[string][]string `json:"queryParams"`
	Body         any                 `json:"body"`
}

// errorPayload is the error body backends answer on non-success status.
type errorPayload struct {
	Message string `json:"message"`
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

// Do executes one enveloped call and returns the raw JSON payload.
//
// Error taxonomy:
//   - context cancellation passes through untouched so callers can discard
//     superseded queries without surfacing an error
//   - transport-level failures become EUNAVAILABLE (backend unreachable)
//   - non-2xx responses become application errors carrying the service
//     message verbatim, or "Error HTTP <status>" when no message is present
func (c *Client) Do(ctx context.Context, path, targetMethod string, queryParams map[string][]string, body any) (json.RawMessage, error) {
	op := "gateway." + strings.ToLower(targetMethod) + " " + path

	payload, err := json.Marshal(envelope{
		TargetMethod: targetMethod,
		QueryParams:  normalizeQueryParams(queryParams),
		Body:         body,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.Unavailable(err, op)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.Unavailable(err, op)
	}

	// Backends occasionally answer plain text; wrap it so callers always see
	// JSON with a message field.
	parsed := json.RawMessage(raw)
	if len(bytes.TrimSpace(raw)) == 0 {
		parsed = json.RawMessage("null")
	} else if !json.Valid(raw) {
		wrapped, _ := json.Marshal(errorPayload{Message: string(raw)})
		parsed = wrapped
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ep errorPayload
		_ = json.Unmarshal(parsed, &ep)
		message := ep.Message
		if message == "" {
			message = fmt.Sprintf("Error HTTP %d", resp.StatusCode)
		}
		return nil, &domain.Error{Code: codeForStatus(resp.StatusCode), Op: op, Message: message}
	}

	return parsed, nil
}

// IsCanceled reports whether err is a discarded in-flight call rather than a
// real failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// normalizeQueryParams drops empty values so optional filters vanish from the
// envelope, matching what the gateway contract expects.
func normalizeQueryParams(params map[string][]string) map[string][]string {
	normalized := make(map[string][]string, len(params))
	for key, values := range params {
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			normalized[key] = kept
		}
	}
	return normalized
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.EINVALID
	case http.StatusNotFound:
		return domain.ENOTFOUND
	case http.StatusConflict:
		return domain.ECONFLICT
	case http.StatusPaymentRequired:
		return domain.EPAYMENT
	default:
		return domain.EUPSTREAM
	}
}
