package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
	"github.com/relatosdepapel/storefront/internal/telemetry"
)

// BookFetcher fetches one catalogue book by ID. The cart never trusts
// client-supplied book data; additions always go through the catalogue.
type BookFetcher interface {
	Book(ctx context.Context, id int64) (*domain.Book, error)
}

// CartStore is the slice of the cart store the HTTP surface needs.
type CartStore interface {
	AddItem(book domain.Book)
	RemoveItem(bookID int64)
	DecreaseQuantity(bookID int64)
	Clear()
	Items() []domain.LineItem
	TotalItemCount() int
	TotalValue() float64
}

// CartHandler serves the cart views and mutations.
type CartHandler struct {
	cart    CartStore
	books   BookFetcher
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics
}

// NewCartHandler creates a cart handler.
func NewCartHandler(cart CartStore, books BookFetcher, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *CartHandler {
	return &CartHandler{cart: cart, books: books, logger: logger, metrics: metrics}
}

// cartView is the cart as the frontend renders it: line items plus the badge
// count and running total.
type cartView struct {
	Items      []domain.LineItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalValue float64           `json:"totalValue"`
}

type addItemRequest struct {
	BookID int64 `json:"bookId"`
}

func (h *CartHandler) view() cartView {
	items := h.cart.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartView{
		Items:      items,
		TotalItems: h.cart.TotalItemCount(),
		TotalValue: h.cart.TotalValue(),
	}
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.view())
}

// AddItem handles POST /api/cart/items
//
// The book is fetched from the catalogue so price and title come from the
// source of truth, not the request.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, "cart.add", &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.BookID < 1 {
		respondError(w, r, h.logger, domain.Invalid("cart.add", "bookId must be a positive integer"))
		return
	}

	book, err := h.books.Book(r.Context(), req.BookID)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	h.cart.AddItem(*book)
	h.metrics.CartItemsAdded.Inc()

	respondJSON(w, http.StatusOK, h.view())
}

// DecreaseItem handles POST /api/cart/items/{id}/decrease
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, r, h.logger, domain.Invalid("cart.decrease", "book ID must be a positive integer"))
		return
	}

	h.cart.DecreaseQuantity(id)
	respondJSON(w, http.StatusOK, h.view())
}

// RemoveItem handles DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, r, h.logger, domain.Invalid("cart.remove", "book ID must be a positive integer"))
		return
	}

	h.cart.RemoveItem(id)
	h.metrics.CartItemsRemoved.Inc()
	respondJSON(w, http.StatusOK, h.view())
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	h.metrics.CartCleared.Inc()
	respondJSON(w, http.StatusOK, h.view())
}
