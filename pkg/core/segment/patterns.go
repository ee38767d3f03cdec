// Package segment locates named logical sections inside converted filing
// text. Layout is inconsistent across issuers and years, so boundary
// detection enumerates every plausible header match and ranks candidates
// instead of assuming a fixed grammar.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// SECTION PATTERN TABLE - Declarative item -> boundary pattern mapping
// =============================================================================

// Headers may be markdown-decorated ("## Item 1A."), emphasized ("**ITEM 7**"),
// quoted, or embedded in table rows ("| Item 8 | ..."). The start regex
// tolerates a run of decoration characters before the literal label and an
// optional word after it, and is anchored to a line start.
const decorationClass = `[#*_>|\s]*`

// SectionPattern pairs one section's start regex with the end regexes at
// which it must terminate. New section types are additive data, not new code
// paths.
type SectionPattern struct {
	Start string
	Ends  []string
}

// itemLabelPattern builds the line-anchored, decoration-resilient regex for
// one literal item label, e.g. key "1A" -> matches "ITEM 1A.", "| item 1a",
// "### Item 1A. Risk Factors".
func itemLabelPattern(key string) string {
	return fmt.Sprintf(`(?mi)^%sitem\s+%s\b[.:]?`, decorationClass, regexp.QuoteMeta(key))
}

// splitItemKey separates an item key into its numeric part and optional
// letter suffix. "7A" -> (7, "A"). Returns ok=false for keys it cannot read.
func splitItemKey(key string) (num int, suffix string, ok bool) {
	key = strings.ToUpper(strings.TrimSpace(key))
	i := 0
	for i < len(key) && key[i] >= '0' && key[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	num, err := strconv.Atoi(key[:i])
	if err != nil {
		return 0, "", false
	}
	return num, key[i:], true
}

// InferSectionPattern derives boundary patterns for an item key using the
// fixed adjacency rule: item N ends at N-with-suffix ("NA") or N+1; a
// lettered variant ("1A") ends at the next letter ("1B") or N+1.
func InferSectionPattern(key string) (SectionPattern, error) {
	num, suffix, ok := splitItemKey(key)
	if !ok {
		return SectionPattern{}, fmt.Errorf("cannot infer boundaries for item key %q", key)
	}

	var ends []string
	if suffix == "" {
		ends = append(ends, itemLabelPattern(fmt.Sprintf("%dA", num)))
	} else {
		next := suffix[:len(suffix)-1] + string(suffix[len(suffix)-1]+1)
		ends = append(ends, itemLabelPattern(fmt.Sprintf("%d%s", num, next)))
	}
	ends = append(ends, itemLabelPattern(strconv.Itoa(num+1)))

	return SectionPattern{
		Start: itemLabelPattern(strings.ToUpper(strings.TrimSpace(key))),
		Ends:  ends,
	}, nil
}
