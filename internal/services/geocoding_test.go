package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodingSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name":"Paris, France","lat":"48.8566","lon":"2.3522"}]`))
	}))
	defer server.Close()

	svc := NewGeocodingService(server.URL)

	results, err := svc.Search(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Paris, France", results[0].DisplayName)
}

func TestGeocodingLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name":"Paris, France","lat":"48.8566","lon":"2.3522"}]`))
	}))
	defer server.Close()

	svc := NewGeocodingService(server.URL)

	lat, lon, err := svc.Lookup(context.Background(), "Paris")
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, lat, 0.0001)
	assert.InDelta(t, 2.3522, lon, 0.0001)
}

func TestGeocodingLookupNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc := NewGeocodingService(server.URL)

	_, _, err := svc.Lookup(context.Background(), "Nowhereville")
	assert.ErrorIs(t, err, ErrNoGeocodingResult)
}

func TestGeocodingSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewGeocodingService(server.URL)

	_, err := svc.Search(context.Background(), "Paris")
	assert.Error(t, err)
}
