package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/telemetry"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockAPI implements API for testing with per-operation hooks and call counts
type mockAPI struct {
	listFn    func(ctx context.Context) ([]domain.Book, error)
	searchFn  func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error)
	suggestFn func(ctx context.Context, text string, size int) ([]string, error)
	facetsFn  func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error)
	bookFn    func(ctx context.Context, id int64) (*domain.Book, error)

	listCalls    atomic.Int32
	searchCalls  atomic.Int32
	suggestCalls atomic.Int32
	facetsCalls  atomic.Int32
}

func (m *mockAPI) List(ctx context.Context) ([]domain.Book, error) {
	m.listCalls.Add(1)
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *mockAPI) Search(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
	m.searchCalls.Add(1)
	if m.searchFn == nil {
		return nil, nil
	}
	return m.searchFn(ctx, qc)
}

func (m *mockAPI) Suggest(ctx context.Context, text string, size int) ([]string, error) {
	m.suggestCalls.Add(1)
	if m.suggestFn == nil {
		return nil, nil
	}
	return m.suggestFn(ctx, text, size)
}

func (m *mockAPI) Facets(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
	m.facetsCalls.Add(1)
	if m.facetsFn == nil {
		return domain.FacetSnapshot{}, nil
	}
	return m.facetsFn(ctx, qc)
}

func (m *mockAPI) Book(ctx context.Context, id int64) (*domain.Book, error) {
	if m.bookFn == nil {
		return nil, domain.NotFound("catalog.book", "book", "mock")
	}
	return m.bookFn(ctx, id)
}

// fakeClock is a settable clock for TTL tests
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *telemetry.BusinessMetrics {
	return telemetry.NewBusinessMetrics(prometheus.NewRegistry(), "test")
}

func newTestEngine(api API, opts ...EngineOption) *Engine {
	return NewEngine(api, testLogger(), testMetrics(), opts...)
}

func books(titles ...string) []domain.Book {
	out := make([]domain.Book, len(titles))
	for i, title := range titles {
		out[i] = domain.Book{ID: int64(i + 1), Title: title, Author: "A", Category: "C", Visible: true}
	}
	return out
}

// ============================================================================
// Listing Strategy
// ============================================================================

func TestEngine_Resolve_NoQueryUsesList(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int32(1), api.listCalls.Load())
	assert.Equal(t, int32(0), api.searchCalls.Load())
}

func TestEngine_Resolve_FiltersOnlyUseSearch(t *testing.T) {
	api := &mockAPI{
		searchFn: func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
			assert.Equal(t, "Novela", qc.Category)
			return books("Rayuela"), nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Category: "Novela"})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int32(0), api.listCalls.Load())
	assert.Equal(t, int32(0), api.suggestCalls.Load())
}

func TestEngine_Resolve_SearchWithHitsSkipsSuggest(t *testing.T) {
	api := &mockAPI{
		searchFn: func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
			return books("Harry Potter y la piedra filosofal"), nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "harry potter"})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int32(0), api.suggestCalls.Load())
}

func TestEngine_Resolve_ZeroHitsRetriesWithFirstSuggestion(t *testing.T) {
	var searched []string
	api := &mockAPI{
		searchFn: func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
			searched = append(searched, qc.Search)
			if qc.Search == "harry potter" {
				assert.Equal(t, "Fantasía", qc.Category, "retry keeps the original filters")
				return books("Harry Potter y la piedra filosofal"), nil
			}
			return nil, nil
		},
		suggestFn: func(ctx context.Context, text string, size int) ([]string, error) {
			assert.Equal(t, "harypotter", text)
			return []string{"harry potter", "harry potter 2"}, nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "harypotter", Category: "Fantasía"})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, []string{"harypotter", "harry potter"}, searched)
}

func TestEngine_Resolve_NoSuggestionsKeepsEmptyResult(t *testing.T) {
	api := &mockAPI{
		suggestFn: func(ctx context.Context, text string, size int) ([]string, error) {
			return nil, nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "zzzz"})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int32(1), api.searchCalls.Load(), "no retry without a suggestion")
}

func TestEngine_Resolve_SuggestFailureDegradesToEmptyResult(t *testing.T) {
	api := &mockAPI{
		suggestFn: func(ctx context.Context, text string, size int) ([]string, error) {
			return nil, domain.Unavailable(errors.New("connection refused"), "catalog.suggest")
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "zzzz"})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestEngine_Resolve_RetryChainsOnlyOnce(t *testing.T) {
	api := &mockAPI{
		suggestFn: func(ctx context.Context, text string, size int) ([]string, error) {
			return []string{"still nothing"}, nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "zzzz"})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int32(2), api.searchCalls.Load())
	assert.Equal(t, int32(1), api.suggestCalls.Load(), "the retry's zero hits must not suggest again")
}

func TestEngine_Resolve_ListingErrorPropagates(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return nil, domain.Unavailable(errors.New("connection refused"), "catalog.list")
		},
	}
	engine := newTestEngine(api)

	_, err := engine.Resolve(context.Background(), domain.QueryContext{})

	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EUNAVAILABLE))
}

func TestEngine_Resolve_CanceledContextPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return nil, ctx.Err()
		},
	}
	engine := newTestEngine(api)

	_, err := engine.Resolve(ctx, domain.QueryContext{})

	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// Facets
// ============================================================================

func TestEngine_Resolve_FacetsFromEndpoint(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.NewFacetSnapshot(7, map[string]int64{"Novela": 7}, map[string]int64{"Cortázar": 7}), nil
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{})

	require.NoError(t, err)
	assert.False(t, result.FacetsDerived)
	assert.Equal(t, int64(7), result.Facets.Total)
	require.Len(t, result.Facets.Categories, 1)
	assert.Equal(t, "Novela", result.Facets.Categories[0].Name)
}

func TestEngine_Resolve_FacetsFailureDerivesFromItems(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return []domain.Book{
				{ID: 1, Title: "Rayuela", Author: "Cortázar", Category: "Novela"},
				{ID: 2, Title: "Bestiario", Author: "Cortázar", Category: "Cuento"},
			}, nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.FacetSnapshot{}, domain.Unavailable(errors.New("connection refused"), "catalog.facets")
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{})

	require.NoError(t, err)
	assert.True(t, result.FacetsDerived)
	assert.Empty(t, result.Advisory)
	assert.Equal(t, int64(2), result.Facets.Total)
	require.Len(t, result.Facets.Authors, 1)
	assert.Equal(t, int64(2), result.Facets.Authors[0].Count)
	require.Len(t, result.Facets.Categories, 2)
}

func TestEngine_Resolve_AdvisoryWhenNothingDerivable(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			// Records without category or author yield no buckets at all.
			return []domain.Book{{ID: 1, Title: "Rayuela"}}, nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.FacetSnapshot{}, domain.Unavailable(errors.New("connection refused"), "catalog.facets")
		},
	}
	engine := newTestEngine(api)

	result, err := engine.Resolve(context.Background(), domain.QueryContext{})

	require.NoError(t, err)
	assert.True(t, result.FacetsDerived)
	assert.Equal(t, AdvisoryNoFacets, result.Advisory)
}

func TestEngine_Resolve_FacetsCacheServesWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.NewFacetSnapshot(1, map[string]int64{"Novela": 1}, nil), nil
		},
	}
	engine := newTestEngine(api, WithFacetsTTL(20*time.Second), WithClock(clock.Now))

	_, err := engine.Resolve(context.Background(), domain.QueryContext{})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, err = engine.Resolve(context.Background(), domain.QueryContext{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.facetsCalls.Load(), "second resolve inside the TTL must hit the cache")

	clock.Advance(11 * time.Second)
	_, err = engine.Resolve(context.Background(), domain.QueryContext{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), api.facetsCalls.Load(), "expired entry must refetch")
}

func TestEngine_Resolve_FacetsCacheKeyedByQueryContext(t *testing.T) {
	api := &mockAPI{
		searchFn: func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.NewFacetSnapshot(1, map[string]int64{"Novela": 1}, nil), nil
		},
	}
	engine := newTestEngine(api)

	_, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "rayuela"})
	require.NoError(t, err)
	_, err = engine.Resolve(context.Background(), domain.QueryContext{Search: "bestiario"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), api.facetsCalls.Load(), "distinct contexts have distinct cache entries")
}

func TestEngine_Resolve_TrimmedContextsShareCacheEntry(t *testing.T) {
	api := &mockAPI{
		searchFn: func(ctx context.Context, qc domain.QueryContext) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			return domain.NewFacetSnapshot(1, map[string]int64{"Novela": 1}, nil), nil
		},
	}
	engine := newTestEngine(api)

	_, err := engine.Resolve(context.Background(), domain.QueryContext{Search: "rayuela"})
	require.NoError(t, err)
	_, err = engine.Resolve(context.Background(), domain.QueryContext{Search: "  rayuela  "})
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.facetsCalls.Load())
}

func TestEngine_Resolve_ConcurrentIdenticalContextsShareOneFacetsCall(t *testing.T) {
	release := make(chan struct{})
	api := &mockAPI{
		listFn: func(ctx context.Context) ([]domain.Book, error) {
			return books("Rayuela"), nil
		},
		facetsFn: func(ctx context.Context, qc domain.QueryContext) (domain.FacetSnapshot, error) {
			<-release
			return domain.NewFacetSnapshot(1, map[string]int64{"Novela": 1}, nil), nil
		},
	}
	engine := newTestEngine(api)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Resolve(context.Background(), domain.QueryContext{})
			assert.NoError(t, err)
		}()
	}

	// Give the resolvers time to pile onto the in-flight call, then let it go.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), api.facetsCalls.Load())
}
