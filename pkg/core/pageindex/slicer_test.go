package pageindex

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// pagedDoc builds a document whose pages end with a bare page-number line.
func pagedDoc(pages ...string) string {
	var sb strings.Builder
	for i, content := range pages {
		sb.WriteString(content)
		sb.WriteString(fmt.Sprintf("\n%d\n", i+1))
	}
	return sb.String()
}

const barePagePattern = `^\s*(\d+)\s*$`

func TestBuildPageMap_MarkerEndOffsets(t *testing.T) {
	text := "alpha\n12\nbeta\n45\ngamma"
	pageMap, err := BuildPageMap(text, barePagePattern)
	if err != nil {
		t.Fatalf("BuildPageMap failed: %v", err)
	}
	if len(pageMap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(pageMap))
	}

	// Offsets point at the END of each marker so a slice opened there starts
	// with the following page's content.
	off12, ok := pageMap[12]
	if !ok {
		t.Fatal("page 12 missing from map")
	}
	if !strings.HasPrefix(text[off12:], "\nbeta") {
		t.Errorf("offset for page 12 should land before 'beta', got %q", text[off12:])
	}
	if _, ok := pageMap[45]; !ok {
		t.Error("page 45 missing from map")
	}
}

func TestBuildPageMap_RejectsPatternWithoutCaptureGroup(t *testing.T) {
	if _, err := BuildPageMap("text", `^\d+$`); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("pattern without capture group must be rejected, got %v", err)
	}
}

func TestBuildPageMap_RejectsMalformedPattern(t *testing.T) {
	if _, err := BuildPageMap("text", `([`); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
	if _, err := BuildPageMap("text", ""); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("empty pattern must be rejected, got %v", err)
	}
}

func TestBuildPageMap_NonNumericCapturesSkipped(t *testing.T) {
	text := "intro\nPage A\nPage 7\n"
	pageMap, err := BuildPageMap(text, `^Page\s+(\w+)$`)
	if err != nil {
		t.Fatalf("BuildPageMap failed: %v", err)
	}
	if len(pageMap) != 1 {
		t.Errorf("non-numeric capture should be skipped, got %d entries", len(pageMap))
	}
}

func TestSlicePages_MiddleRange(t *testing.T) {
	text := pagedDoc("first page", "second page", "third page", "fourth page")

	start, end := 1, 3
	got, err := SlicePages(text, barePagePattern, &start, &end)
	if err != nil {
		t.Fatalf("SlicePages failed: %v", err)
	}
	if !strings.Contains(got, "second page") || !strings.Contains(got, "third page") {
		t.Errorf("slice should cover pages 2-3, got %q", got)
	}
	if strings.Contains(got, "first page") || strings.Contains(got, "fourth page") {
		t.Errorf("slice leaked outside its page range: %q", got)
	}
}

func TestSlicePages_NilMarkersMeanDocumentEdges(t *testing.T) {
	text := pagedDoc("first page", "second page")

	got, err := SlicePages(text, barePagePattern, nil, nil)
	if err != nil {
		t.Fatalf("SlicePages failed: %v", err)
	}
	if got != text {
		t.Errorf("nil markers should return the whole document")
	}

	end := 1
	head, err := SlicePages(text, barePagePattern, nil, &end)
	if err != nil {
		t.Fatalf("SlicePages failed: %v", err)
	}
	if !strings.Contains(head, "first page") || strings.Contains(head, "second page") {
		t.Errorf("nil start should slice from the document start, got %q", head)
	}
}

func TestSlicePages_MissingMarkerFails(t *testing.T) {
	text := pagedDoc("first page", "second page")

	missing := 99
	if _, err := SlicePages(text, barePagePattern, &missing, nil); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("missing start marker must fail, got %v", err)
	}
	if _, err := SlicePages(text, barePagePattern, nil, &missing); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("missing end marker must fail, got %v", err)
	}
}

func TestSlicePages_BackwardsRangeFails(t *testing.T) {
	text := pagedDoc("first page", "second page", "third page")

	start, end := 2, 1
	if _, err := SlicePages(text, barePagePattern, &start, &end); !errors.Is(err, ErrOrderingViolation) {
		t.Errorf("backwards range must fail, got %v", err)
	}
}

func TestCompilePattern_RespectsExplicitFlags(t *testing.T) {
	// A proposal that sets its own flags is compiled as-is.
	re, err := compilePattern(`(?m)^(\d+)$`)
	if err != nil {
		t.Fatalf("compilePattern failed: %v", err)
	}
	if re.MatchString("PAGE") {
		t.Error("explicit flags must not gain case-insensitivity")
	}

	// Without explicit flags, (?mi) is prepended.
	re, err = compilePattern(`^page\s+(\d+)$`)
	if err != nil {
		t.Fatalf("compilePattern failed: %v", err)
	}
	if !re.MatchString("Page 7") {
		t.Error("default compilation should be case-insensitive")
	}
}
