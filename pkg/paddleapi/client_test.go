package paddleapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchByCoordinate_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/water-bodies/search", r.URL.Path)
		assert.Equal(t, "40.015000", r.URL.Query().Get("lat"))
		assert.Equal(t, "10000", r.URL.Query().Get("radius"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"water_body_id":"W1","name":"Boulder Creek","distance_meters":420}]`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	got, err := client.SearchByCoordinate(context.Background(), 40.015, -105.2705, 10000)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "W1", got[0]["water_body_id"])
	assert.Equal(t, "Boulder Creek", got[0]["name"])
}

func TestSearchByName_EnvelopeResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/water-bodies/search-by-name", r.URL.Path)
		assert.Equal(t, "green river", r.URL.Query().Get("name"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"waterBodyId":"W7","name":"Green River"},{"waterBodyId":"W8","name":"Green River (Upper)"}]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	got, err := client.SearchByName(context.Background(), "green river")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "W7", got[0]["waterBodyId"])
}

func TestSearchByName_AnonymousOmitsAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	got, err := client.SearchByName(context.Background(), "anything")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchByCoordinate_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"water_body_id":"W1","name":"Boulder Creek"}]`))
	}))
	defer srv.Close()

	client := NewClient("t", WithBaseURL(srv.URL))
	got, err := client.SearchByCoordinate(context.Background(), 40, -105, 5000)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchByCoordinate_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad radius"}`))
	}))
	defer srv.Close()

	client := NewClient("t", WithBaseURL(srv.URL))
	_, err := client.SearchByCoordinate(context.Background(), 40, -105, -1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchByName_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("t", WithBaseURL(srv.URL))
	_, err := client.SearchByName(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
