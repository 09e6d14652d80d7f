package highlight

import "sort"

// DefaultZIndexCeiling is the layering value of the first rendered region.
const DefaultZIndexCeiling = 100

// Order returns a copy of occs sorted into render order: start ascending, and
// for equal starts the longer match first. Ties keep discovery order.
func Order(occs []Occurrence) []Occurrence {
	out := make([]Occurrence, len(occs))
	copy(out, occs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Len() > out[j].Len()
	})
	return out
}

// ZIndex returns the layering value for the region at render index i. Earlier
// regions layer above later ones.
func ZIndex(ceiling, i int) int {
	return ceiling - i
}
