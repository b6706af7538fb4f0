package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
)

// fakeGateway answers per-path canned responses and records the envelopes it
// received
type fakeGateway struct {
	responses map[string]string
	envelopes map[string]map[string][]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: make(map[string]string),
		envelopes: make(map[string]map[string][]string),
	}
}

func (f *fakeGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env struct {
			TargetMethod string              `json:"targetMethod"`
			QueryParams  map[string][]string `json:"queryParams"`
		}
		_ = json.NewDecoder(r.Body).Decode(&env)
		f.envelopes[r.URL.Path] = env.QueryParams

		if body, ok := f.responses[r.URL.Path]; ok {
			w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}
}

func newTestClient(t *testing.T, fake *fakeGateway) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewClient(gw, testLogger())
}

func TestClient_Search_SendsFiltersAndVisibleFlag(t *testing.T) {
	fake := newFakeGateway()
	fake.responses["/api/books/search"] = `[]`
	client := newTestClient(t, fake)

	_, err := client.Search(context.Background(), domain.QueryContext{
		Search:   "rayuela",
		Category: "Novela",
	})

	require.NoError(t, err)
	params := fake.envelopes["/api/books/search"]
	assert.Equal(t, []string{"rayuela"}, params["title"])
	assert.Equal(t, []string{"Novela"}, params["category"])
	assert.Equal(t, []string{"true"}, params["visible"])
	assert.NotContains(t, params, "author", "inactive filters stay out of the envelope")
}

func TestClient_List_NormalizesRecords(t *testing.T) {
	fake := newFakeGateway()
	fake.responses["/api/books"] = `[
		{"id":1,"title":"Rayuela","price":15.5,"isbn":"978-84-376-0494-7","rating":5},
		{"id":2,"title":"Bestiario","price":12.0}
	]`
	client := newTestClient(t, fake)

	books, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9788437604947-L.jpg", books[0].CoverURL)
	assert.True(t, books[0].BestSeller)
	assert.Equal(t, domain.FallbackCoverURL, books[1].CoverURL)
	assert.Equal(t, domain.FallbackDescription, books[1].Description)
	assert.False(t, books[1].BestSeller)
}

func TestClient_List_DropsInvalidRecords(t *testing.T) {
	fake := newFakeGateway()
	// Second record has no title, third has a negative price.
	fake.responses["/api/books"] = `[
		{"id":1,"title":"Rayuela","price":15.5},
		{"id":2,"price":12.0},
		{"id":3,"title":"Roto","price":-1}
	]`
	client := newTestClient(t, fake)

	books, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(1), books[0].ID)
}

func TestClient_Suggest_SendsTextAndSize(t *testing.T) {
	fake := newFakeGateway()
	fake.responses["/api/books/search/suggest"] = `["harry potter"]`
	client := newTestClient(t, fake)

	suggestions, err := client.Suggest(context.Background(), "harypotter", 8)

	require.NoError(t, err)
	assert.Equal(t, []string{"harry potter"}, suggestions)
	params := fake.envelopes["/api/books/search/suggest"]
	assert.Equal(t, []string{"harypotter"}, params["text"])
	assert.Equal(t, []string{"8"}, params["size"])
}

func TestClient_Facets_BuildsOrderedSnapshot(t *testing.T) {
	fake := newFakeGateway()
	fake.responses["/api/books/search/facets"] = `{
		"total": 9,
		"categories": {"Novela": 4, "Cuento": 5},
		"authors": {"Cortázar": 9}
	}`
	client := newTestClient(t, fake)

	snapshot, err := client.Facets(context.Background(), domain.QueryContext{})

	require.NoError(t, err)
	assert.Equal(t, int64(9), snapshot.Total)
	require.Len(t, snapshot.Categories, 2)
	assert.Equal(t, "Cuento", snapshot.Categories[0].Name)
}

func TestClient_Book_NotFoundPropagates(t *testing.T) {
	client := newTestClient(t, newFakeGateway())

	_, err := client.Book(context.Background(), 42)

	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}
