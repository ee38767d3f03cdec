package segment

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"filing_snapshot/pkg/core/utils"
	"filing_snapshot/pkg/models"
)

// ErrSectionNotFound reports that no candidate span survived boundary
// matching and the min-length filter. Callers must treat this as "section
// absent or unlocatable", never as an empty section.
var ErrSectionNotFound = errors.New("section not found")

// =============================================================================
// SECTION BOUNDARY EXTRACTOR - Longest-block heuristic over header matches
// =============================================================================

// ExtractItem slices the named item (e.g. "1A", "7", "8") out of a filing's
// full text. End markers are inferred from the item adjacency rule. minLength
// is the noise floor: table-of-contents rows, running headers, and
// cross-references all produce short spans, while the true section body is
// always long. A span of exactly minLength is rejected.
func ExtractItem(fullText, itemKey string, minLength int) (string, error) {
	pat, err := InferSectionPattern(itemKey)
	if err != nil {
		return "", err
	}
	span, err := extractSpan(fullText, pat.Start, pat.Ends, minLength)
	if err != nil {
		return "", fmt.Errorf("item %s: %w", itemKey, err)
	}
	return span.Text(), nil
}

// ExtractSectionWithEnds slices a section with caller-supplied boundary
// regexes, overriding the adjacency table. An empty end set means "to end of
// document": use it for the final item of a filing, which has no successor
// marker. When several end patterns are given, their matches are pooled and
// the nearest-following offset wins regardless of which pattern produced it.
func ExtractSectionWithEnds(fullText, startPattern string, endPatterns []string, minLength int) (string, error) {
	span, err := extractSpan(fullText, startPattern, endPatterns, minLength)
	if err != nil {
		return "", err
	}
	return span.Text(), nil
}

// extractSpan enumerates every start and end match, pairs each start with the
// nearest strictly-following end, filters by length, and returns the longest
// survivor.
func extractSpan(fullText, startPattern string, endPatterns []string, minLength int) (models.SectionSpan, error) {
	startRe, err := regexp.Compile(startPattern)
	if err != nil {
		return models.SectionSpan{}, fmt.Errorf("invalid start pattern: %w", err)
	}

	starts := startRe.FindAllStringIndex(fullText, -1)
	if len(starts) == 0 {
		return models.SectionSpan{}, ErrSectionNotFound
	}

	// Pool end offsets across all end patterns. Real documents contain many
	// spurious matches for these too; pairing handles that.
	var endOffsets []int
	for _, p := range endPatterns {
		endRe, err := regexp.Compile(p)
		if err != nil {
			return models.SectionSpan{}, fmt.Errorf("invalid end pattern %q: %w", p, err)
		}
		for _, m := range endRe.FindAllStringIndex(fullText, -1) {
			endOffsets = append(endOffsets, m[0])
		}
	}

	var candidates []models.SectionSpan
	for _, s := range starts {
		start := s[0]
		end := -1
		if len(endPatterns) == 0 {
			// Explicit to-end-of-document policy.
			end = len(fullText)
		} else {
			for _, e := range endOffsets {
				if e > start && (end == -1 || e < end) {
					end = e
				}
			}
		}
		if end == -1 {
			// A start with no following end marker is a dangling reference,
			// not a section body.
			continue
		}
		if end-start > minLength {
			candidates = append(candidates, models.SectionSpan{Start: start, End: end, Source: fullText})
		}
	}

	winner, ok := utils.MaxBy(candidates, func(s models.SectionSpan) int { return s.Length() })
	if !ok {
		log.Printf("[Segment] %d start matches but no candidate above min_length=%d", len(starts), minLength)
		return models.SectionSpan{}, ErrSectionNotFound
	}
	return winner, nil
}
