package store

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRecords(t *testing.T) {
	records := RawRecords([]WaterBody{
		{ID: "wb-1", Name: "Clear Creek", TypeTag: "river", Latitude: 39.74, Longitude: -105.22},
		{ID: "wb-2", Name: "Bear Lake", Latitude: 40.31, Longitude: -105.64},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "wb-1", records[0]["water_body_id"])
	assert.Equal(t, "Clear Creek", records[0]["name"])
	assert.Equal(t, 39.74, records[0]["lat"])
	assert.Equal(t, -105.22, records[0]["lng"])
	assert.Equal(t, "river", records[0]["type"])

	_, hasType := records[1]["type"]
	assert.False(t, hasType, "empty type tag should be omitted")
}

func TestRawRecords_Empty(t *testing.T) {
	assert.Empty(t, RawRecords(nil))
}

// fakeStore records search calls for the CommunitySource tests.
type fakeStore struct {
	nearLat, nearLng, nearRadius float64
	nearLimit                    int
	nameQuery                    string
	nameLimit                    int
	bodies                       []WaterBody
	err                          error
}

func (f *fakeStore) UpsertWaterBodies(ctx context.Context, bodies []WaterBody) (int64, error) {
	return int64(len(bodies)), nil
}

func (f *fakeStore) SearchNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]WaterBody, error) {
	f.nearLat, f.nearLng, f.nearRadius, f.nearLimit = lat, lng, radiusMeters, limit
	return f.bodies, f.err
}

func (f *fakeStore) SearchByName(ctx context.Context, name string, limit int) ([]WaterBody, error) {
	f.nameQuery, f.nameLimit = name, limit
	return f.bodies, f.err
}

func (f *fakeStore) ListWaterBodies(ctx context.Context, limit, offset int) ([]WaterBody, error) {
	return f.bodies, f.err
}

func (f *fakeStore) CountWaterBodies(ctx context.Context) (int64, error) {
	return int64(len(f.bodies)), nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func TestCommunitySource_SearchByCoordinate(t *testing.T) {
	fs := &fakeStore{bodies: []WaterBody{
		{ID: "wb-1", Name: "Clear Creek", Latitude: 39.74, Longitude: -105.22},
	}}
	src := NewCommunitySource(fs, 50)

	records, err := src.SearchByCoordinate(context.Background(), 39.74, -105.22, 10000)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "wb-1", records[0]["water_body_id"])
	assert.Equal(t, 10000.0, fs.nearRadius)
	assert.Equal(t, 50, fs.nearLimit)
}

func TestCommunitySource_SearchByName(t *testing.T) {
	fs := &fakeStore{bodies: []WaterBody{
		{ID: "wb-2", Name: "Bear Lake", Latitude: 40.31, Longitude: -105.64},
	}}
	src := NewCommunitySource(fs, 0)

	records, err := src.SearchByName(context.Background(), "bear")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bear", fs.nameQuery)
	assert.Equal(t, defaultSearchLimit, fs.nameLimit)
}

func TestCommunitySource_PropagatesError(t *testing.T) {
	fs := &fakeStore{err: eris.New("disk gone")}
	src := NewCommunitySource(fs, 0)

	_, err := src.SearchByCoordinate(context.Background(), 0, 0, 1000)
	require.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Río Grande", "rio grande"},
		{"Clear Creek", "clear creek"},
		{"WALTER E. LONG", "walter e long"},
		{"  St. Vrain -- North Fork  ", "st vrain north fork"},
		{"Lac Saint-Jean", "lac saint jean"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}
