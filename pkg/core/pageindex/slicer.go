// Package pageindex slices documents whose sections are only addressable by
// table-of-contents page numbers: no typed headers, just a recurring
// page-number rendering somewhere on each page. The rendering convention is
// discovered per document format and validated before use.
package pageindex

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPattern reports a page-number regex that failed to compile
	// or matched nothing in its validation sample. An unvalidated pattern is
	// never used or persisted.
	ErrInvalidPattern = errors.New("invalid page-number pattern")

	// ErrPageNotFound reports a requested page marker missing from the
	// document. There is deliberately no nearest-match fallback: a missing
	// marker usually signals format drift and must stop the pipeline rather
	// than produce a silently wrong slice.
	ErrPageNotFound = errors.New("page marker not found")

	// ErrOrderingViolation reports a computed start index at or past the end
	// index.
	ErrOrderingViolation = errors.New("slice start at or past end")
)

// compilePattern compiles a discovered pattern with multiline +
// case-insensitive matching unless the pattern sets its own flags. Proposals
// come line-anchored ("^\s*(\d+)\s*$") and rely on these flags the way the
// discovery prompt describes them.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if !strings.HasPrefix(pattern, "(?") {
		pattern = "(?mi)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// BuildPageMap scans the document with a validated pattern and maps each
// parsed page number to the end offset of its marker. Matches whose capture
// group is not an integer are skipped. Duplicate page numbers keep the last
// occurrence, matching a scan in document order.
func BuildPageMap(text, pattern string) (map[int]int, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: pattern has no capture group for the page digits", ErrInvalidPattern)
	}

	pageMap := make(map[int]int)
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		// m[2], m[3] bound capture group 1.
		if m[2] < 0 {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(text[m[2]:m[3]]))
		if err != nil {
			continue
		}
		pageMap[num] = m[1]
	}
	return pageMap, nil
}

// SlicePages returns the text between two page markers. A nil startPage
// means "from the beginning of the document"; a nil endPage means "to the
// end". A provided marker MUST exist in the page map or the call fails;
// there is never a silent fallback to offset 0. The slice starts AFTER the start
// marker and ends at the end of the end marker, so the caller passes the
// page before the section's first page as the start.
func SlicePages(text, pattern string, startPage, endPage *int) (string, error) {
	pageMap, err := BuildPageMap(text, pattern)
	if err != nil {
		return "", err
	}

	startIndex := 0
	if startPage != nil {
		offset, ok := pageMap[*startPage]
		if !ok {
			return "", fmt.Errorf("%w: start page %d", ErrPageNotFound, *startPage)
		}
		startIndex = offset
	}

	endIndex := len(text)
	if endPage != nil {
		offset, ok := pageMap[*endPage]
		if !ok {
			return "", fmt.Errorf("%w: end page %d", ErrPageNotFound, *endPage)
		}
		endIndex = offset
	}

	if startIndex >= endIndex {
		return "", fmt.Errorf("%w: start index %d, end index %d", ErrOrderingViolation, startIndex, endIndex)
	}
	return text[startIndex:endIndex], nil
}
