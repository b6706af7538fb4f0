package storefront

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/relatosdepapel/storefront/internal/checkout"
	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
	"github.com/relatosdepapel/storefront/internal/payments"
)

// CheckoutHandler serves order confirmation and payment history.
type CheckoutHandler struct {
	checkout checkout.Service
	payments payments.API
	logger   *slog.Logger
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(svc checkout.Service, paymentsAPI payments.API, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, payments: paymentsAPI, logger: logger}
}

type confirmRequest struct {
	UserID int64 `json:"userId"`
}

// failedItem identifies the line item whose payment was rejected.
type failedItem struct {
	BookID   int64  `json:"bookId"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// checkoutErrorResponse reports a checkout that stopped partway: the failing
// line and the payments already created, which are not reversed.
type checkoutErrorResponse struct {
	Error     errorBody        `json:"error"`
	Failed    failedItem       `json:"failed"`
	Completed []domain.Payment `json:"completed"`
}

// Confirm handles POST /api/checkout
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeBody(r, "checkout.confirm", &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.UserID < 1 {
		respondError(w, r, h.logger, domain.Invalid("checkout.confirm", "userId must be a positive integer"))
		return
	}

	confirmation, err := h.checkout.Confirm(r.Context(), req.UserID)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}

		var chkErr *checkout.Error
		if errors.As(err, &chkErr) {
			completed := chkErr.Completed
			if completed == nil {
				completed = []domain.Payment{}
			}
			respondJSON(w, http.StatusPaymentRequired, checkoutErrorResponse{
				Error: errorBody{
					Code:    domain.EPAYMENT,
					Message: domain.ErrorMessage(chkErr.Err),
				},
				Failed: failedItem{
					BookID:   chkErr.Failed.Book.ID,
					Title:    chkErr.Failed.Book.Title,
					Quantity: chkErr.Failed.Quantity,
				},
				Completed: completed,
			})
			return
		}

		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, confirmation)
}

// History handles GET /api/payments?userId=
func (h *CheckoutHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID < 1 {
		respondError(w, r, h.logger, domain.Invalid("payments.history", "userId must be a positive integer"))
		return
	}

	history, err := h.payments.ListByUser(r.Context(), userID)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}
		respondError(w, r, h.logger, err)
		return
	}
	if history == nil {
		history = []domain.Payment{}
	}

	respondJSON(w, http.StatusOK, history)
}
