package segment

import (
	"sort"
	"strings"
)

// =============================================================================
// KEYWORD WINDOW MERGER - Interval merge around literal keyword hits
// =============================================================================

// MergeKeywordWindows finds every case-insensitive literal occurrence of the
// keywords in text and returns the merged context windows around them, each
// wrapped in ellipsis markers and joined by newlines. Used to reach specific
// notes (tax, warranty, contingencies) buried deep inside a large item where
// section slicing alone cannot land.
//
// Literal substring search, not regex: header spellings are consistent enough
// and exact search keeps the scan fast and predictable. Returns "" when no
// keyword matches.
func MergeKeywordWindows(text string, keywords []string, windowSize int) string {
	if text == "" || len(keywords) == 0 {
		return ""
	}

	textLower := strings.ToLower(text)
	var hits []int
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		kwLower := strings.ToLower(kw)
		from := 0
		for {
			idx := strings.Index(textLower[from:], kwLower)
			if idx == -1 {
				break
			}
			hits = append(hits, from+idx)
			from += idx + len(kwLower)
		}
	}
	if len(hits) == 0 {
		return ""
	}

	sort.Ints(hits)

	// Build clipped ranges and merge overlapping or touching neighbors.
	type span struct{ start, end int }
	var merged []span
	cur := span{clamp(hits[0]-windowSize, len(text)), clamp(hits[0]+windowSize, len(text))}
	for _, idx := range hits[1:] {
		start := clamp(idx-windowSize, len(text))
		end := clamp(idx+windowSize, len(text))
		if start <= cur.end {
			if end > cur.end {
				cur.end = end
			}
		} else {
			merged = append(merged, cur)
			cur = span{start, end}
		}
	}
	merged = append(merged, cur)

	snippets := make([]string, 0, len(merged))
	for _, s := range merged {
		snippets = append(snippets, "... "+text[s.start:s.end]+" ...")
	}
	return strings.Join(snippets, "\n")
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
