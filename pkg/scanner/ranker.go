package scanner

import "sort"

// Rank orders evidence by descending score and returns at most limit entries,
// stopping at the first zero score. Equal scores keep ascending hop order.
// The input slice is not modified.
//
// In RSSI mode the sums are usually negative dBm, so any hop that was never
// sampled (score 0) sorts ahead of them and hides everything below it.
func Rank(entries []Evidence, limit int) []Evidence {
	sorted := make([]Evidence, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score() > sorted[j].Score()
	})

	var top []Evidence
	for _, e := range sorted {
		if len(top) >= limit || e.Score() == 0 {
			break
		}
		top = append(top, e)
	}
	return top
}
