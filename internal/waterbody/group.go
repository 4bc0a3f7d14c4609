package waterbody

// GroupResult is the grouped view of a candidate list: community candidates
// aggregated by water-body id, external candidates passed through flat.
type GroupResult struct {
	Groups   []Group     `json:"groups"`
	External []Candidate `json:"external_candidates"`
}

// GroupCandidates partitions normalized candidates into water-body groups and
// a flat external list.
//
// Groups appear in first-seen order of their water-body id. Header fields
// (name, type tag, coordinate, distance) come from the first candidate for
// that id and are not overwritten by later ones. Each candidate carrying a
// section name contributes exactly one section entry; repeated section names
// are distinct sections, not duplicates.
//
// When includeExternal is false, external candidates are excluded from the
// result entirely; re-grouping the same candidate list with true recovers
// them without a new fetch. External candidates are not deduplicated by
// external id here; duplicate suppression is a caller concern.
func GroupCandidates(candidates []Candidate, includeExternal bool) GroupResult {
	byID := make(map[string]*Group, len(candidates))
	var order []string
	var external []Candidate

	for _, c := range candidates {
		switch c.Provenance {
		case ProvenanceExternal:
			if includeExternal {
				external = append(external, c)
			}
		case ProvenanceCommunity:
			if c.WaterBodyID == "" {
				// No grouping key; drop without error.
				continue
			}
			g, seen := byID[c.WaterBodyID]
			if !seen {
				g = &Group{
					WaterBodyID:    c.WaterBodyID,
					Name:           c.Name,
					TypeTag:        c.TypeTag,
					Coordinate:     c.Coordinate,
					DistanceMeters: c.DistanceMeters,
				}
				byID[c.WaterBodyID] = g
				order = append(order, c.WaterBodyID)
			}
			if c.SectionName != "" || c.SectionID != "" {
				g.Sections = append(g.Sections, Section{
					Index: c.SectionIndex,
					ID:    c.SectionID,
					Name:  c.SectionName,
				})
			}
		}
	}

	groups := make([]Group, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byID[id])
	}
	return GroupResult{Groups: groups, External: external}
}
