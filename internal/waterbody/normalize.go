package waterbody

import (
	"strconv"
	"strings"
)

// RawRecord is one undecoded search result as returned by an upstream
// endpoint: a JSON object of unknown shape.
type RawRecord = map[string]any

// Field aliases tolerated across the two community endpoints. The
// coordinate-search endpoint uses snake_case, the name-search endpoint
// camelCase, and pre-migration records still use riverId.
var (
	waterBodyIDKeys = []string{"waterBodyId", "water_body_id", "riverId"}
	sectionIDKeys   = []string{"sectionId", "section_id"}
	sectionNameKeys = []string{"sectionName", "section_name"}
	sectionIdxKeys  = []string{"sectionIndex", "section_index"}
	externalIDKeys  = []string{"externalId", "external_id", "osmId"}
	externalTypKeys = []string{"externalType", "external_type", "osmType"}
	nameKeys        = []string{"name", "waterBodyName", "water_body_name"}
	typeTagKeys     = []string{"type", "typeTag", "type_tag", "waterBodyType"}
	distanceKeys    = []string{"distanceMeters", "distance_meters", "distance"}
)

// Normalize converts raw upstream records into canonical candidates.
//
// Classification is by field presence: a record carrying an external id is an
// external candidate; a record carrying a water-body id is a community
// candidate. Records that fit neither class, and community records whose id
// field is empty, are dropped silently. Missing coordinates, section ids, and
// distances are tolerated per the legacy-data rules.
func Normalize(raw []RawRecord) []Candidate {
	out := make([]Candidate, 0, len(raw))
	for _, rec := range raw {
		if rec == nil {
			continue
		}
		c, ok := normalizeOne(rec)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func normalizeOne(rec RawRecord) (Candidate, bool) {
	c := Candidate{
		Name:       stringField(rec, nameKeys...),
		TypeTag:    stringField(rec, typeTagKeys...),
		Coordinate: coordinateField(rec),
	}
	if d, ok := floatField(rec, distanceKeys...); ok {
		c.DistanceMeters = &d
	}

	if extID := stringField(rec, externalIDKeys...); extID != "" {
		c.Provenance = ProvenanceExternal
		c.ExternalID = extID
		c.ExternalType = stringField(rec, externalTypKeys...)
		if c.ExternalType == "" {
			c.ExternalType = "osm"
		}
		return c, true
	}

	wbID := stringField(rec, waterBodyIDKeys...)
	if wbID == "" {
		// A community record without its grouping key is unusable; an
		// unclassifiable record likewise. Both are dropped, not errors.
		return Candidate{}, false
	}
	c.Provenance = ProvenanceCommunity
	c.WaterBodyID = wbID
	c.SectionID = stringField(rec, sectionIDKeys...)
	c.SectionName = stringField(rec, sectionNameKeys...)
	if idx, ok := floatField(rec, sectionIdxKeys...); ok {
		c.SectionIndex = int(idx)
	}
	return c, true
}

// stringField returns the first non-empty string value among the given keys.
// Stringified numbers are accepted for id fields since some endpoints emit
// numeric ids.
func stringField(rec RawRecord, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		case float64:
			return trimFloat(s)
		case int:
			return trimFloat(float64(s))
		}
	}
	return ""
}

func floatField(rec RawRecord, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		}
	}
	return 0, false
}

// coordinateField reads either a nested coordinate object or flat lat/lng
// keys. Records with only one of the pair are treated as having no
// coordinate rather than half of one.
func coordinateField(rec RawRecord) *LatLng {
	if nested, ok := rec["coordinate"].(map[string]any); ok {
		if ll := latLngFrom(nested); ll != nil {
			return ll
		}
	}
	return latLngFrom(rec)
}

func latLngFrom(m map[string]any) *LatLng {
	lat, latOK := floatField(m, "lat", "latitude")
	lng, lngOK := floatField(m, "lng", "lon", "longitude")
	if !latOK || !lngOK {
		return nil
	}
	return &LatLng{Lat: lat, Lng: lng}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
