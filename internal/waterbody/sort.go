package waterbody

import "sort"

// SortForDisplay produces the final display ordering for a result set.
//
// Community groups always precede external candidates regardless of distance:
// authoritative data outranks crowd-sourced map data. Within each partition
// items sort by ascending distance, items without a distance sort last, and
// ties keep their original input order.
func SortForDisplay(groups []Group, externals []Candidate) []DisplayItem {
	items := make([]DisplayItem, 0, len(groups)+len(externals))
	for i := range groups {
		items = append(items, DisplayItem{Kind: ItemKindGroup, Group: &groups[i]})
	}
	for i := range externals {
		items = append(items, DisplayItem{Kind: ItemKindExternal, External: &externals[i]})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Kind != b.Kind {
			return a.Kind == ItemKindGroup
		}
		da, aOK := a.distance()
		db, bOK := b.distance()
		if aOK != bOK {
			return aOK
		}
		if !aOK {
			return false
		}
		return da < db
	})

	return items
}
