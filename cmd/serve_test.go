package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinsgre/paddlepartner-waterways/internal/search"
	"github.com/akinsgre/paddlepartner-waterways/internal/waterbody"
)

type fakeSearcher struct {
	got    search.Query
	result *search.Result
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	f.got = q
	return f.result, f.err
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Search(t *testing.T) {
	dist := 1200.0
	fs := &fakeSearcher{result: &search.Result{
		Groups: []waterbody.Group{
			{WaterBodyID: "wb-1", Name: "Clear Creek", DistanceMeters: &dist},
		},
	}}
	router := newRouter(fs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?lat=40.0&lng=-105.0&radius=5000", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, fs.got.Origin)
	assert.InDelta(t, 40.0, fs.got.Origin.Lat, 1e-9)
	assert.InDelta(t, -105.0, fs.got.Origin.Lng, 1e-9)
	assert.InDelta(t, 5000, fs.got.RadiusMeters, 1e-9)
	assert.True(t, fs.got.IncludeExternal)

	var body search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "Clear Creek", body.Groups[0].Name)
}

func TestRouter_Search_ByName(t *testing.T) {
	fs := &fakeSearcher{result: &search.Result{}}
	router := newRouter(fs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?name=clear+creek&include_external=false", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "clear creek", fs.got.Name)
	assert.Nil(t, fs.got.Origin)
	assert.False(t, fs.got.IncludeExternal)
}

func TestRouter_Search_MissingParams(t *testing.T) {
	router := newRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lat/lng or name is required")
}

func TestRouter_Search_BadCoordinate(t *testing.T) {
	router := newRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?lat=abc&lng=-105.0", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid lat")
}

func TestRouter_Search_HalfCoordinate(t *testing.T) {
	router := newRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?lat=40.0", nil))

	// lng missing: treated as invalid, not as a name search.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Search_UpstreamError(t *testing.T) {
	router := newRouter(&fakeSearcher{err: eris.New("backend down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?name=x", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "search failed")
}
