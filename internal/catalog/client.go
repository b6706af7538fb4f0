// Package catalog talks to the remote catalogue service and resolves what the
// storefront should display for a given query context.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
)

const (
	booksPath   = "/api/books"
	searchPath  = "/api/books/search"
	suggestPath = "/api/books/search/suggest"
	facetsPath  = "/api/books/search/facets"
)

// API is the remote catalogue surface the query engine consumes. All
// operations are read-only.
type API interface {
	// List returns all visible books, unfiltered.
	List(ctx context.Context) ([]domain.Book, error)

	// Search returns visible books matching the title text and any active
	// category/author filters. Empty fields are omitted from the call.
	Search(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error)

	// Suggest returns completion candidates for a partial title.
	Suggest(ctx context.Context, text string, size int) ([]string, error)

	// Facets returns category/author counts for the query context.
	Facets(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error)

	// Book returns one book by ID.
	Book(ctx context.Context, id int64) (*domain.Book, error)
}

// Client implements API over the gateway envelope.
type Client struct {
	gw       *gateway.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// facetsResponse is the raw facets payload shape.
type facetsResponse struct {
	Total      int64            `json:"total"`
	Categories map[string]int64 `json:"categories"`
	Authors    map[string]int64 `json:"authors"`
}

// NewClient creates a catalogue client.
func NewClient(gw *gateway.Client, logger *slog.Logger) *Client {
	return &Client{
		gw:       gw,
		validate: validator.New(),
		logger:   logger,
	}
}

func (c *Client) List(ctx context.Context) ([]domain.Book, error) {
	raw, err := c.gw.Do(ctx, booksPath, "GET", nil, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeBooks(raw)
}

func (c *Client) Search(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
	params := map[string][]string{
		"title":    {qc.Search},
		"category": {qc.Category},
		"author":   {qc.Author},
		"visible":  {"true"},
	}
	raw, err := c.gw.Do(ctx, searchPath, "GET", params, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeBooks(raw)
}

func (c *Client) Suggest(ctx context.Context, text string, size int) ([]string, error) {
	params := map[string][]string{
		"text": {text},
		"size": {strconv.Itoa(size)},
	}
	raw, err := c.gw.Do(ctx, suggestPath, "GET", params, nil)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, domain.Internal(err, "catalog.suggest", "unexpected suggest response shape")
	}
	return suggestions, nil
}

func (c *Client) Facets(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
	params := map[string][]string{
		"text":     {qc.Search},
		"category": {qc.Category},
		"author":   {qc.Author},
		"visible":  {"true"},
	}
	raw, err := c.gw.Do(ctx, facetsPath, "GET", params, nil)
	if err != nil {
		return domain.FacetSnapshot{}, err
	}

	var resp facetsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.FacetSnapshot{}, domain.Internal(err, "catalog.facets", "unexpected facets response shape")
	}
	return domain.NewFacetSnapshot(resp.Total, resp.Categories, resp.Authors), nil
}

func (c *Client) Book(ctx context.Context, id int64) (*domain.Book, error) {
	raw, err := c.gw.Do(ctx, booksPath+"/"+strconv.FormatInt(id, 10), "GET", nil, nil)
	if err != nil {
		return nil, err
	}

	var book domain.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, domain.Internal(err, "catalog.book", "unexpected book response shape")
	}
	if err := c.validate.Struct(&book); err != nil {
		return nil, domain.Internal(err, "catalog.book", "catalogue returned an invalid book record")
	}
	book.Normalize()
	return &book, nil
}

// decodeBooks parses a book list, validates each record at the boundary and
// applies view normalization. Invalid records are dropped and logged rather
// than trusted downstream.
func (c *Client) decodeBooks(raw json.RawMessage) ([]domain.Book, error) {
	var books []domain.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, domain.Internal(err, "catalog.list", "unexpected book list response shape")
	}

	valid := books[:0]
	for i := range books {
		if err := c.validate.Struct(&books[i]); err != nil {
			c.logger.Warn("dropping invalid book record from catalogue response",
				slog.Int64("id", books[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		books[i].Normalize()
		valid = append(valid, books[i])
	}
	return valid, nil
}
