package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
	"github.com/relatosdepapel/storefront/internal/telemetry"
)

// DefaultFacetsTTL is how long a facet snapshot stays servable without a
// network call.
const DefaultFacetsTTL = 20 * time.Second

// DefaultSuggestSize caps the suggestion fallback request.
const DefaultSuggestSize = 8

// AdvisoryNoFacets is shown when facet counts could not be fetched nor
// derived while the listing itself has items.
const AdvisoryNoFacets = "Category and author filters are temporarily unavailable."

// Result is the normalized view model Resolve hands back to the view layer.
type Result struct {
	Items []domain.Book `json:"items"`

	Facets domain.FacetSnapshot `json:"facets"`

	// FacetsDerived is true when the facets endpoint failed and counts were
	// tallied from the items themselves.
	FacetsDerived bool `json:"facetsDerived"`

	// Advisory is a user-visible notice for degraded-data conditions. Empty
	// when the resolution was complete.
	Advisory string `json:"advisory,omitempty"`
}

// Engine resolves query contexts against the remote catalogue, minimizing
// redundant network calls. Callers own debounce timing and cancellation: a
// superseded query is abandoned by cancelling its context, and its results
// are discarded by the caller, never by the engine.
type Engine struct {
	api         API
	logger      *slog.Logger
	metrics     *telemetry.BusinessMetrics
	facetsTTL   time.Duration
	suggestSize int

	// facet snapshots by QueryContext key, plus a singleflight group so
	// concurrent identical contexts share one underlying call. Mutated only
	// by the engine.
	mu     sync.Mutex
	cache  map[string]facetsEntry
	flight singleflight.Group

	now func() time.Time
}

type facetsEntry struct {
	snapshot domain.FacetSnapshot
	expires  time.Time
}

// EngineOption tunes engine construction.
type EngineOption func(*Engine)

// WithFacetsTTL overrides the facet cache time-to-live.
func WithFacetsTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.facetsTTL = ttl }
}

// WithSuggestSize overrides the suggestion fallback request size.
func WithSuggestSize(size int) EngineOption {
	return func(e *Engine) { e.suggestSize = size }
}

// WithClock overrides the cache clock. Test hook.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a query engine on top of the catalogue API.
func NewEngine(api API, logger *slog.Logger, metrics *telemetry.BusinessMetrics, opts ...EngineOption) *Engine {
	e := &Engine{
		api:         api,
		logger:      logger,
		metrics:     metrics,
		facetsTTL:   DefaultFacetsTTL,
		suggestSize: DefaultSuggestSize,
		cache:       make(map[string]facetsEntry),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve produces the result list and facet snapshot for a query context.
//
// Only a failure of the primary listing call propagates as an error
// (connectivity vs application, already distinguished by the gateway).
// Suggestion and facet failures degrade: a dead suggest service turns a
// zero-hit search into an empty result, and dead facets fall back to counts
// derived from the items themselves, with an advisory when even that yields
// nothing while items exist. Context cancellation passes through as the
// context error so callers can discard superseded calls silently.
func (e *Engine) Resolve(ctx context.Context, qc domain.QueryContext) (*Result, error) {
	qc = qc.Trim()
	e.metrics.Searches.Inc()

	// Facets run concurrently with the listing call.
	type facetsOutcome struct {
		snapshot domain.FacetSnapshot
		err      error
	}
	facetsCh := make(chan facetsOutcome, 1)
	go func() {
		snapshot, err := e.facets(ctx, qc)
		facetsCh <- facetsOutcome{snapshot, err}
	}()

	items, err := e.listItems(ctx, qc)
	if err != nil {
		return nil, err
	}

	result := &Result{Items: items}

	fo := <-facetsCh
	if fo.err == nil {
		result.Facets = fo.snapshot
		return result, nil
	}

	if !gateway.IsCanceled(fo.err) {
		e.logger.Warn("facets unavailable, deriving counts from result set",
			slog.String("error", fo.err.Error()))
	}
	e.metrics.FacetsDegraded.Inc()
	result.Facets = domain.DeriveFacets(items)
	result.FacetsDerived = true
	if result.Facets.Empty() && len(items) > 0 {
		result.Advisory = AdvisoryNoFacets
	}
	return result, nil
}

// Book fetches one book by ID for the detail view.
func (e *Engine) Book(ctx context.Context, id int64) (*domain.Book, error) {
	return e.api.Book(ctx, id)
}

// Suggest exposes completion candidates for the header search box.
func (e *Engine) Suggest(ctx context.Context, text string) ([]string, error) {
	return e.api.Suggest(ctx, text, e.suggestSize)
}

// listItems picks the cheapest listing call for the context: full-text search
// with a single-level suggestion retry, filtered search, or the plain list.
func (e *Engine) listItems(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
	if qc.HasSearch() {
		items, err := e.api.Search(ctx, qc)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}

		suggestions, err := e.api.Suggest(ctx, qc.Search, e.suggestSize)
		if err != nil {
			if gateway.IsCanceled(err) {
				return nil, err
			}
			e.logger.Warn("suggest unavailable, keeping empty search result",
				slog.String("search", qc.Search),
				slog.String("error", err.Error()))
			return items, nil
		}
		if len(suggestions) == 0 {
			return items, nil
		}

		// Retry once with the first suggestion, keeping the original
		// filters. No suggestion chaining.
		e.metrics.SuggestionFallbacks.Inc()
		retry := qc
		retry.Search = suggestions[0]
		return e.api.Search(ctx, retry)
	}

	if qc.HasFilters() {
		return e.api.Search(ctx, qc)
	}

	return e.api.List(ctx)
}

// facets returns the snapshot for the context, serving from the TTL cache
// when live and collapsing concurrent identical requests into one call.
func (e *Engine) facets(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
	key := qc.Key()

	e.mu.Lock()
	if entry, ok := e.cache[key]; ok && e.now().Before(entry.expires) {
		e.mu.Unlock()
		e.metrics.FacetsCacheHits.Inc()
		return entry.snapshot, nil
	}
	e.mu.Unlock()
	e.metrics.FacetsCacheMisses.Inc()

	// The shared call is detached from the first caller's cancellation so a
	// second waiter is not starved when the first abandons its query.
	ch := e.flight.DoChan(key, func() (interface{}, error) {
		snapshot, err := e.api.Facets(context.WithoutCancel(ctx), qc)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache[key] = facetsEntry{snapshot: snapshot, expires: e.now().Add(e.facetsTTL)}
		e.mu.Unlock()
		return snapshot, nil
	})

	select {
	case <-ctx.Done():
		return domain.FacetSnapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.FacetSnapshot{}, res.Err
		}
		return res.Val.(domain.FacetSnapshot), nil
	}
}
