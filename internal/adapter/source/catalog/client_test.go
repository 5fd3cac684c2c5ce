package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/mmcdole/vista/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", time.Second, nil)
}

func TestFetchDecodesPage(t *testing.T) {
	var gotQuery map[string]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		gotQuery = map[string]string{
			"offset": r.URL.Query().Get("offset"),
			"limit":  r.URL.Query().Get("limit"),
			"query":  r.URL.Query().Get("query"),
			"sort":   r.URL.Query().Get("sort"),
		}
		json.NewEncoder(w).Encode(ItemsResponse{
			Total: 321,
			Result: []ItemDTO{
				{ID: "1", Title: "Alien", Year: 1979, Type: "movie", Thumb: "/thumbs/1.jpg"},
				{ID: "2", Title: "Firefly", Type: "show", Thumb: "https://cdn.example/2.jpg"},
			},
		})
	})

	page, err := c.Fetch(t.Context(), 100, 50, domain.Filter{Query: "ali", Sort: "year"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"offset": "100", "limit": "50", "query": "ali", "sort": "year"}, gotQuery)
	assert.Equal(t, 321, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alien", page.Items[0].Title)
	assert.Equal(t, domain.MediaTypeMovie, page.Items[0].Type)
	assert.Equal(t, c.baseURL+"/thumbs/1.jpg", page.Items[0].ThumbURL)
	assert.Equal(t, domain.MediaTypeShow, page.Items[1].Type)
	assert.Equal(t, "https://cdn.example/2.jpg", page.Items[1].ThumbURL)
}

func TestFetchOmitsEmptyFilter(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasQuery := r.URL.Query()["query"]
		_, hasSort := r.URL.Query()["sort"]
		assert.False(t, hasQuery)
		assert.False(t, hasSort)
		w.Write([]byte(`{"total":0,"result":[]}`))
	})

	page, err := c.Fetch(t.Context(), 0, 10, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestFetchAuthFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Fetch(t.Context(), 0, 10, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestFetchServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"index rebuilding"}`))
	})

	_, err := c.Fetch(t.Context(), 0, 10, domain.Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index rebuilding")
}

func TestFetchMalformedBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":`))
	})

	_, err := c.Fetch(t.Context(), 0, 10, domain.Filter{})
	assert.ErrorContains(t, err, "failed to parse response")
}

func TestFetchOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, "", time.Second, nil)

	_, err := c.Fetch(t.Context(), 0, 10, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestFetchCanceled(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := c.Fetch(ctx, 0, 10, domain.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		assert.Equal(t, 0, limit)
		w.Write([]byte(`{"total":12,"result":[]}`))
	})
	assert.NoError(t, c.Ping(t.Context()))
}
