// Package waterbody implements the search-result model for water bodies:
// normalizing heterogeneous upstream records, grouping sections under their
// parent water body, computing distances, and ordering results for display.
package waterbody

import "fmt"

// Provenance identifies where a search candidate came from.
type Provenance string

const (
	// ProvenanceCommunity marks records from the PaddlePartner database,
	// including user-contributed sections.
	ProvenanceCommunity Provenance = "community"
	// ProvenanceExternal marks records sourced from a third-party open map
	// dataset. They carry no internal water-body id.
	ProvenanceExternal Provenance = "external"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is a single normalized search result record.
//
// Community candidates always carry a WaterBodyID; external candidates carry
// an ExternalID (plus ExternalType) instead. SectionName may be present
// without SectionID on legacy records.
type Candidate struct {
	Provenance     Provenance `json:"provenance"`
	WaterBodyID    string     `json:"water_body_id,omitempty"`
	SectionID      string     `json:"section_id,omitempty"`
	SectionIndex   int        `json:"section_index,omitempty"`
	SectionName    string     `json:"section_name,omitempty"`
	ExternalID     string     `json:"external_id,omitempty"`
	ExternalType   string     `json:"external_type,omitempty"`
	Name           string     `json:"name"`
	TypeTag        string     `json:"type_tag,omitempty"`
	Coordinate     *LatLng    `json:"coordinate,omitempty"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
}

// ExternalKey returns the globally unique key for an external candidate,
// "external-<type>-<id>". Empty for community candidates.
func (c Candidate) ExternalKey() string {
	if c.Provenance != ProvenanceExternal {
		return ""
	}
	return fmt.Sprintf("external-%s-%s", c.ExternalType, c.ExternalID)
}

// Section is one named sub-region of a grouped water body.
type Section struct {
	Index int    `json:"section_index"`
	ID    string `json:"section_id"`
	Name  string `json:"section_name"`
}

// Group aggregates the community candidates that share a water-body id.
// Header fields come from the first candidate seen for that id.
type Group struct {
	WaterBodyID    string    `json:"water_body_id"`
	Name           string    `json:"name"`
	TypeTag        string    `json:"type_tag,omitempty"`
	Coordinate     *LatLng   `json:"coordinate,omitempty"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
	Sections       []Section `json:"sections"`
}

// ItemKind discriminates DisplayItem variants.
type ItemKind string

const (
	ItemKindGroup    ItemKind = "group"
	ItemKindExternal ItemKind = "external"
)

// DisplayItem is one entry in the final display ordering: either a grouped
// community water body or a pass-through external candidate. Exactly one of
// Group and External is non-nil, matching Kind.
type DisplayItem struct {
	Kind     ItemKind   `json:"kind"`
	Group    *Group     `json:"group,omitempty"`
	External *Candidate `json:"external,omitempty"`
}

// distance returns the item's distance and whether one is known.
func (d DisplayItem) distance() (float64, bool) {
	switch d.Kind {
	case ItemKindGroup:
		if d.Group != nil && d.Group.DistanceMeters != nil {
			return *d.Group.DistanceMeters, true
		}
	case ItemKindExternal:
		if d.External != nil && d.External.DistanceMeters != nil {
			return *d.External.DistanceMeters, true
		}
	}
	return 0, false
}
