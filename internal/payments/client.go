// Package payments talks to the remote payments service through the gateway
// envelope.
package payments

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
)

const paymentsPath = "/api/payments"

// API is the payments surface the checkout flow consumes.
type API interface {
	// Create creates one payment for a quantity of a book on behalf of a
	// user. The service denormalizes book data into the payment record.
	Create(ctx context.Context, userID, bookID int64, quantity int) (*domain.Payment, error)

	// ListByUser returns the payment history for a user.
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
}

// Client implements API over the gateway envelope.
type Client struct {
	gw *gateway.Client
}

// createRequest is the minimal payload the payments API requires.
type createRequest struct {
	UserID   int64 `json:"userId"`
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

// userPaymentsResponse wraps the payment history payload.
type userPaymentsResponse struct {
	Payments []domain.Payment `json:"payments"`
}

// NewClient creates a payments client.
func NewClient(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

func (c *Client) Create(ctx context.Context, userID, bookID int64, quantity int) (*domain.Payment, error) {
	raw, err := c.gw.Do(ctx, paymentsPath, "POST", nil, createRequest{
		UserID:   userID,
		BookID:   bookID,
		Quantity: quantity,
	})
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, domain.Internal(err, "payments.create", "unexpected payment response shape")
	}
	return &payment, nil
}

func (c *Client) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	params := map[string][]string{
		"userId": {strconv.FormatInt(userID, 10)},
	}
	raw, err := c.gw.Do(ctx, paymentsPath, "GET", params, nil)
	if err != nil {
		return nil, err
	}

	var resp userPaymentsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.Internal(err, "payments.list", "unexpected payments response shape")
	}
	return resp.Payments, nil
}
