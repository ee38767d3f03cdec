package utils

// Candidate ranking: "rank candidates, pick extremal". Section extraction
// picks the longest span, anchor resolution picks the latest filing date,
// secondary-anchor resolution picks the earliest. All three go through these
// two helpers so the tie-breaking behavior stays identical everywhere: when
// keys compare equal the earlier element wins.

// MaxBy returns the element with the greatest key and true, or the zero value
// and false for an empty slice.
func MaxBy[T any, K int | int64 | float64](items []T, key func(T) K) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestKey := key(items[0])
	for _, it := range items[1:] {
		if k := key(it); k > bestKey {
			best, bestKey = it, k
		}
	}
	return best, true
}

// MinBy returns the element with the smallest key and true, or the zero value
// and false for an empty slice.
func MinBy[T any, K int | int64 | float64](items []T, key func(T) K) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestKey := key(items[0])
	for _, it := range items[1:] {
		if k := key(it); k < bestKey {
			best, bestKey = it, k
		}
	}
	return best, true
}
