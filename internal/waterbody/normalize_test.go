package waterbody

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat64(v float64) *float64 { return &v }

func TestNormalizeClassification(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want Provenance
		keep bool
	}{
		{
			"community camelCase",
			RawRecord{"waterBodyId": "W1", "name": "Lake A"},
			ProvenanceCommunity, true,
		},
		{
			"community snake_case",
			RawRecord{"water_body_id": "W2", "name": "Lake B"},
			ProvenanceCommunity, true,
		},
		{
			"legacy riverId alias",
			RawRecord{"riverId": "R9", "name": "Old River"},
			ProvenanceCommunity, true,
		},
		{
			"external by osm id",
			RawRecord{"externalId": "123", "name": "OSM Lake"},
			ProvenanceExternal, true,
		},
		{
			"numeric external id",
			RawRecord{"osmId": float64(456), "name": "OSM Pond"},
			ProvenanceExternal, true,
		},
		{
			"community without id dropped",
			RawRecord{"provenance": "community", "name": "Orphan"},
			"", false,
		},
		{
			"unclassifiable dropped",
			RawRecord{"name": "No ids at all"},
			"", false,
		},
		{
			"empty id dropped",
			RawRecord{"waterBodyId": "  ", "name": "Blank"},
			"", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]RawRecord{tt.rec})
			if !tt.keep {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Provenance)
		})
	}
}

func TestNormalizeCommunityFields(t *testing.T) {
	got := Normalize([]RawRecord{{
		"waterBodyId":    "W1",
		"sectionId":      "S1",
		"sectionName":    "Upper",
		"sectionIndex":   float64(2),
		"name":           "Lake A",
		"type":           "lake",
		"distanceMeters": float64(500),
		"coordinate":     map[string]any{"lat": 40.1, "lng": -105.2},
	}})
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "W1", c.WaterBodyID)
	assert.Equal(t, "S1", c.SectionID)
	assert.Equal(t, "Upper", c.SectionName)
	assert.Equal(t, 2, c.SectionIndex)
	assert.Equal(t, "Lake A", c.Name)
	assert.Equal(t, "lake", c.TypeTag)
	require.NotNil(t, c.DistanceMeters)
	assert.InDelta(t, 500, *c.DistanceMeters, 0.001)
	require.NotNil(t, c.Coordinate)
	assert.InDelta(t, 40.1, c.Coordinate.Lat, 0.0001)
	assert.InDelta(t, -105.2, c.Coordinate.Lng, 0.0001)
}

func TestNormalizeLegacyTolerance(t *testing.T) {
	t.Run("section name without id survives", func(t *testing.T) {
		got := Normalize([]RawRecord{{
			"waterBodyId": "W1",
			"sectionName": "X",
		}})
		require.Len(t, got, 1)
		assert.Equal(t, "", got[0].SectionID)
		assert.Equal(t, "X", got[0].SectionName)
	})

	t.Run("missing coordinate leaves nil", func(t *testing.T) {
		got := Normalize([]RawRecord{{"waterBodyId": "W1", "name": "A"}})
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Coordinate)
		assert.Nil(t, got[0].DistanceMeters)
	})

	t.Run("half a coordinate treated as none", func(t *testing.T) {
		got := Normalize([]RawRecord{{"waterBodyId": "W1", "lat": 40.0}})
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Coordinate)
	})

	t.Run("flat lat lon keys accepted", func(t *testing.T) {
		got := Normalize([]RawRecord{{"waterBodyId": "W1", "lat": 40.0, "lon": -105.0}})
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Coordinate)
		assert.InDelta(t, -105.0, got[0].Coordinate.Lng, 0.0001)
	})

	t.Run("nil record skipped", func(t *testing.T) {
		got := Normalize([]RawRecord{nil, {"waterBodyId": "W1"}})
		assert.Len(t, got, 1)
	})
}

func TestNormalizeExternalKey(t *testing.T) {
	got := Normalize([]RawRecord{{
		"externalId":   "987",
		"externalType": "way",
		"name":         "Side Channel",
	}})
	require.Len(t, got, 1)
	assert.Equal(t, "external-way-987", got[0].ExternalKey())

	t.Run("default type tag", func(t *testing.T) {
		got := Normalize([]RawRecord{{"externalId": "5"}})
		require.Len(t, got, 1)
		assert.Equal(t, "external-osm-5", got[0].ExternalKey())
	})

	t.Run("empty for community", func(t *testing.T) {
		c := Candidate{Provenance: ProvenanceCommunity, WaterBodyID: "W1"}
		assert.Equal(t, "", c.ExternalKey())
	})
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := []RawRecord{
		{"waterBodyId": "W1", "sectionName": "Upper", "name": "Lake A"},
		{"externalId": "1", "name": "OSM A"},
		{"name": "dropped"},
	}
	first := Normalize(raw)
	second := Normalize(raw)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}
