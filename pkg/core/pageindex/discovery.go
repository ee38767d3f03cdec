package pageindex

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"filing_snapshot/pkg/core/llm"
	"filing_snapshot/pkg/core/utils"
)

// Pattern discovery is semi-automated and runs off the hot path: a sample of
// the document goes to the external classifier, which proposes a regex for
// the page-number rendering convention. The proposal is then validated
// locally (compile plus at least one match in the sample) before anything
// downstream may use it.

const (
	tocSampleChars = 15000

	// Default sample chunk for page-format discovery. The middle of the
	// document is where page numbering is most consistent; the front matter
	// often numbers pages differently or not at all.
	discoverySampleStart = 40000
	discoverySampleEnd   = 60000
)

// delimitedPattern pulls the proposed regex out of ===...=== delimiters, with
// a code-fence fallback for models that ignore the delimiter instruction.
var delimitedPattern = regexp.MustCompile(`(?s)===(.*?)===`)

// TOCEntry is one row of a document's internal table of contents.
type TOCEntry struct {
	Item        string `json:"item"`
	Description string `json:"description"`
	Page        string `json:"page"`
}

// ExtractTOC asks the classifier for the table of contents in the document's
// opening sample and parses the response leniently.
func ExtractTOC(ctx context.Context, provider llm.Provider, fullText string) ([]TOCEntry, error) {
	sample := fullText
	if len(sample) > tocSampleChars {
		sample = sample[:tocSampleChars]
	}

	prompt := fmt.Sprintf(`Locate the 'Table of Contents' (or the table serving that purpose) in the text below.
Extract the 'Item' (e.g., Item 1, Item 7), 'Description', and 'Page' number of each row.

Return a JSON list of objects:
[{"item": "Item 1", "description": "Business", "page": "1"}, ...]

TEXT:
%s`, sample)

	resp, err := provider.GenerateResponse(ctx, prompt, "You extract tables of contents from regulatory filings. Output must be valid JSON.", map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("toc extraction call: %w", err)
	}

	var toc []TOCEntry
	if err := utils.SmartParse(utils.CleanMarkdown(resp), &toc); err != nil {
		return nil, fmt.Errorf("toc response unparseable: %w", err)
	}
	if len(toc) == 0 {
		return nil, fmt.Errorf("toc response contained no entries")
	}
	return toc, nil
}

// ResolveItemPages finds the requested item in a TOC and returns the slice
// markers for SlicePages. Because the page marker is rendered at the foot of
// each page, the slice must open at the marker of the page BEFORE the item's
// first page: an item starting on page 30 slices from marker 29. A nil start
// marker means the item starts on page 1 (slice from document start); a nil
// end marker means the item is the last TOC entry (slice to document end).
func ResolveItemPages(toc []TOCEntry, targetItem string) (startMarker, endMarker *int, err error) {
	for i, entry := range toc {
		if !strings.Contains(strings.TrimSpace(entry.Item), targetItem) {
			continue
		}
		startPage, err := strconv.Atoi(strings.TrimSpace(entry.Page))
		if err != nil {
			return nil, nil, fmt.Errorf("toc page for %s is not a number: %q", targetItem, entry.Page)
		}

		if startPage > 1 {
			m := startPage - 1
			startMarker = &m
		}
		if i+1 < len(toc) {
			endPage, err := strconv.Atoi(strings.TrimSpace(toc[i+1].Page))
			if err != nil {
				return nil, nil, fmt.Errorf("toc page after %s is not a number: %q", targetItem, toc[i+1].Page)
			}
			m := endPage - 1
			endMarker = &m
		} else {
			log.Printf("[PageIndex] %s is the last TOC item, slicing to end of document", targetItem)
		}
		return startMarker, endMarker, nil
	}
	return nil, nil, fmt.Errorf("item %q not present in table of contents", targetItem)
}

// DiscoverPagePattern samples the document, asks the classifier to propose a
// regex for the page-number rendering, and validates the proposal against
// the same sample. Returns ErrInvalidPattern when the proposal fails to
// compile or matches nothing; the caller must re-propose, never trust.
func DiscoverPagePattern(ctx context.Context, provider llm.Provider, fullText string) (string, error) {
	start, end := discoverySampleStart, discoverySampleEnd
	if end > len(fullText) {
		end = len(fullText)
	}
	if start >= end {
		start = 0
	}
	sample := fullText[start:end]

	prompt := fmt.Sprintf(`Analyze the text chunk below. Identify the recurring pattern used for page numbers (e.g., "Page 55", "55", "- 55 -", "<div align='center'>55.</div>").

Task: write a regex that captures the page number digits in group 1.

CRITICAL OUTPUT RULES:
1. Output ONLY the regex string.
2. Wrap the regex in triple equals signs like this: ===REGEX===

Example output: ===^\s*(\d+)\s*$===

TEXT CHUNK:
%s`, sample)

	resp, err := provider.GenerateResponse(ctx, prompt, "You identify formatting conventions in documents. Output only what is asked.", nil)
	if err != nil {
		return "", fmt.Errorf("pattern discovery call: %w", err)
	}

	proposal := extractProposal(resp)
	log.Printf("[PageIndex] Candidate page regex: %q", proposal)

	if err := ValidatePattern(proposal, sample); err != nil {
		return "", err
	}
	return proposal, nil
}

// ValidatePattern is the mandatory validate-before-trust gate: the pattern
// must compile, carry a capture group, and match at least once in the
// sample.
func ValidatePattern(pattern, sample string) error {
	matches, err := BuildPageMap(sample, pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: %q matched nothing in the validation sample", ErrInvalidPattern, pattern)
	}
	log.Printf("[PageIndex] Pattern validated with %d sample matches", len(matches))
	return nil
}

func extractProposal(resp string) string {
	if m := delimitedPattern.FindStringSubmatch(resp); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Fallback for models that wrapped the answer in a code fence instead.
	return strings.TrimSpace(utils.CleanMarkdown(resp))
}
