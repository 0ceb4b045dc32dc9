package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", zerolog.Nop())
}

func TestSpotsDecodesAndNormalizesCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spots", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("server"))
		assert.Equal(t, "livonia", r.URL.Query().Get("map"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Old mill", "x": 10.5, "y": 20.5, "category": "  CAVE "},
			{"id": 2, "name": "Back field", "category": "Farm"}
		]`))
	})

	spots, err := c.Spots(context.Background(), "main", "livonia", "")
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, Category("cave"), spots[0].Category)
	assert.Equal(t, CategoryFarm, spots[1].Category)
}

func TestSpotsPassesCategoryFilter(t *testing.T) {
	var gotCategory string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCategory = r.URL.Query().Get("category")
		w.Write([]byte(`[]`))
	})

	_, err := c.Spots(context.Background(), "main", "livonia", "bunker")
	require.NoError(t, err)
	assert.Equal(t, "bunker", gotCategory)
}

func TestSpotsEmptyPayloadIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	spots, err := c.Spots(context.Background(), "main", "livonia", "")
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestSpotsUpstreamErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Spots(context.Background(), "main", "livonia", "")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode())
}

func TestSpotsRejectsMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"oops":`))
	})

	_, err := c.Spots(context.Background(), "main", "livonia", "")
	var upstream *UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestMapsForServerDerivesDistinctSortedNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "map": "namalsk"},
			{"id": 2, "map": "banov"},
			{"id": 3, "map": "namalsk"},
			{"id": 4, "map": ""}
		]`))
	})

	maps := c.MapsForServer(context.Background(), "main")
	assert.Equal(t, []string{"banov", "namalsk"}, maps)
}

func TestMapsForServerFallsBackOnUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	maps := c.MapsForServer(context.Background(), "main")
	assert.Equal(t, FallbackMaps, maps)
	assert.NotEmpty(t, maps)
}

func TestMapsForServerFallsBackOnEmptyCatalog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	maps := c.MapsForServer(context.Background(), "classic")
	assert.Equal(t, FallbackMaps, maps)
}

func TestMapsForServerFallbackIsACopy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	maps := c.MapsForServer(context.Background(), "main")
	maps[0] = "mutated"
	assert.NotEqual(t, "mutated", FallbackMaps[0])
}

func TestReachable(t *testing.T) {
	up := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/servers", r.URL.Path)
		w.Write([]byte(`[{"name": "main"}]`))
	})
	assert.True(t, up.Reachable(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, down.Reachable(context.Background()))
}

func TestFetchFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/clips/a.mp4" {
			w.Write([]byte("binary-video"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "", zerolog.Nop())

	data, err := c.FetchFile(context.Background(), srv.URL+"/clips/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("binary-video"), data)

	_, err = c.FetchFile(context.Background(), srv.URL+"/clips/missing.mp4")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode())
}

func TestAnonymousClientSendsNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "", zerolog.Nop())
	_, err := c.Spots(context.Background(), "main", "livonia", "")
	require.NoError(t, err)
}

func TestValidServer(t *testing.T) {
	assert.True(t, ValidServer("main"))
	assert.True(t, ValidServer("hardcore"))
	assert.False(t, ValidServer("Main"))
	assert.False(t, ValidServer(""))
}

func TestCategoryPriority(t *testing.T) {
	assert.Equal(t, 1, CategoryFarm.Priority())
	assert.Equal(t, 0, Category("cave").Priority())
	assert.Equal(t, CategoryFarm, NormalizeCategory("  FARM "))
}
