// Package checkout converts the cart into payments, one per line item.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/payments"
	"github.com/relatosdepapel/storefront/internal/telemetry"
)

// Cart is the slice of the cart store the checkout flow needs.
type Cart interface {
	Items() []domain.LineItem
	Clear()
}

// Service confirms orders by creating payments sequentially per cart line.
type Service interface {
	// Confirm creates one payment per line item, in cart order. The first
	// failure stops the sequence; payments already created are reported, not
	// reversed. Full success clears the cart.
	Confirm(ctx context.Context, userID int64) (*domain.Confirmation, error)
}

// Error reports a checkout that stopped partway: the line item whose payment
// failed and the payments created before it.
type Error struct {
	// Failed is the line item whose payment was rejected.
	Failed domain.LineItem

	// Completed holds payments created before the failure. Nothing is rolled
	// back; the sequence simply stops.
	Completed []domain.Payment

	// Err is the payments service failure.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment failed for %q (book %d) after %d successful payment(s): %v",
		e.Failed.Book.Title, e.Failed.Book.ID, len(e.Completed), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type service struct {
	payments payments.API
	cart     Cart
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewService creates a checkout service.
func NewService(paymentsAPI payments.API, cart Cart, logger *slog.Logger, metrics *telemetry.BusinessMetrics) Service {
	return &service{
		payments: paymentsAPI,
		cart:     cart,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *service) Confirm(ctx context.Context, userID int64) (*domain.Confirmation, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	s.metrics.CheckoutsStarted.Inc()

	created := make([]domain.Payment, 0, len(items))
	total := 0.0

	// Payments are created sequentially so a failure is attributable to one
	// line item. Nothing already created is reversed.
	for _, item := range items {
		s.metrics.PaymentsAttempted.Inc()
		payment, err := s.payments.Create(ctx, userID, item.Book.ID, item.Quantity)
		if err != nil {
			s.metrics.PaymentsFailed.Inc()
			s.logger.Error("payment failed, stopping checkout",
				slog.Int64("book_id", item.Book.ID),
				slog.String("title", item.Book.Title),
				slog.Int("completed", len(created)),
				slog.String("error", err.Error()),
			)
			return nil, &Error{Failed: item, Completed: created, Err: err}
		}
		created = append(created, *payment)
		total += payment.TotalPrice
	}

	s.cart.Clear()
	s.metrics.CheckoutsCompleted.Inc()
	s.logger.Info("checkout completed",
		slog.Int64("user_id", userID),
		slog.Int("payments", len(created)),
		slog.Float64("total", total),
	)

	return &domain.Confirmation{Payments: created, Total: total}, nil
}
