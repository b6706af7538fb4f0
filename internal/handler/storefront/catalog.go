package storefront

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/relatosdepapel/storefront/internal/catalog"
	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
)

// CatalogHandler serves the catalogue views: listing with facets, suggestion
// candidates and the book detail page.
type CatalogHandler struct {
	engine *catalog.Engine
	logger *slog.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(engine *catalog.Engine, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{engine: engine, logger: logger}
}

// Resolve handles GET /api/catalog?search=&category=&author=
//
// The response carries the items, the facet snapshot and any degraded-data
// advisory. A cancelled request (user typed again before the answer arrived)
// is discarded without a response body.
func (h *CatalogHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	qc := domain.QueryContext{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Author:   q.Get("author"),
	}

	result, err := h.engine.Resolve(r.Context(), qc)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Suggest handles GET /api/catalog/suggest?text=
func (h *CatalogHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		respondError(w, r, h.logger, domain.Invalid("catalog.suggest", "text parameter is required"))
		return
	}

	suggestions, err := h.engine.Suggest(r.Context(), text)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}
		respondError(w, r, h.logger, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	respondJSON(w, http.StatusOK, suggestions)
}

// Book handles GET /api/catalog/books/{id}
func (h *CatalogHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, r, h.logger, domain.Invalid("catalog.book", "book ID must be a positive integer"))
		return
	}

	book, err := h.engine.Book(r.Context(), id)
	if err != nil {
		if gateway.IsCanceled(err) {
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, book)
}
