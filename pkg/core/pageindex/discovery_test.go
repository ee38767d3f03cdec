package pageindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.calls >= len(p.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func TestDiscoverPagePattern_AcceptsValidProposal(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 30; i++ {
		sb.WriteString(fmt.Sprintf("page content here\n%d\n", i))
	}
	fullText := sb.String()

	provider := &scriptedProvider{responses: []string{`===^\s*(\d+)\s*$===`}}
	pattern, err := DiscoverPagePattern(context.Background(), provider, fullText)
	if err != nil {
		t.Fatalf("DiscoverPagePattern failed: %v", err)
	}
	if pattern != `^\s*(\d+)\s*$` {
		t.Errorf("unexpected pattern: %q", pattern)
	}
}

func TestDiscoverPagePattern_RejectsNonMatchingProposal(t *testing.T) {
	fullText := strings.Repeat("no page markers in this text\n", 100)
	provider := &scriptedProvider{responses: []string{`===^Page (\d+)$===`}}

	_, err := DiscoverPagePattern(context.Background(), provider, fullText)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("proposal matching nothing must be rejected, got %v", err)
	}
}

func TestDiscoverPagePattern_RejectsMalformedProposal(t *testing.T) {
	fullText := strings.Repeat("text\n1\n", 50)
	provider := &scriptedProvider{responses: []string{`===([===`}}

	_, err := DiscoverPagePattern(context.Background(), provider, fullText)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("malformed proposal must be rejected, got %v", err)
	}
}

func TestExtractProposal_CodeFenceFallback(t *testing.T) {
	resp := "```regex\n^\\s*(\\d+)\\s*$\n```"
	if got := extractProposal(resp); got != `^\s*(\d+)\s*$` {
		t.Errorf("code fence fallback failed, got %q", got)
	}
}

func TestExtractTOC_ParsesLenientJSON(t *testing.T) {
	// Trailing comma plus a code fence: the classifier response is repaired,
	// not trusted to be strict JSON.
	resp := "```json\n[{\"item\": \"Item 1\", \"description\": \"Business\", \"page\": \"1\"},\n {\"item\": \"Item 7\", \"description\": \"MD&A\", \"page\": \"30\"},]\n```"
	provider := &scriptedProvider{responses: []string{resp}}

	toc, err := ExtractTOC(context.Background(), provider, "TABLE OF CONTENTS\n...")
	if err != nil {
		t.Fatalf("ExtractTOC failed: %v", err)
	}
	if len(toc) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(toc))
	}
	if toc[1].Item != "Item 7" || toc[1].Page != "30" {
		t.Errorf("unexpected entry: %+v", toc[1])
	}
}

func TestExtractTOC_EmptyResponseFails(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`[]`}}
	if _, err := ExtractTOC(context.Background(), provider, "text"); err == nil {
		t.Error("empty TOC must be an error")
	}
}

func TestResolveItemPages_FootnoteAdjustment(t *testing.T) {
	toc := []TOCEntry{
		{Item: "Item 1", Description: "Business", Page: "1"},
		{Item: "Item 7", Description: "MD&A", Page: "30"},
		{Item: "Item 8", Description: "Financial Statements", Page: "55"},
	}

	start, end, err := ResolveItemPages(toc, "Item 7")
	if err != nil {
		t.Fatalf("ResolveItemPages failed: %v", err)
	}
	// Page markers sit at the FOOT of each page, so an item starting on page
	// 30 opens at marker 29 and one ending before page 55 closes at 54.
	if start == nil || *start != 29 {
		t.Errorf("start marker = %v, want 29", start)
	}
	if end == nil || *end != 54 {
		t.Errorf("end marker = %v, want 54", end)
	}
}

func TestResolveItemPages_FirstAndLastEntries(t *testing.T) {
	toc := []TOCEntry{
		{Item: "Item 1", Page: "1"},
		{Item: "Item 8", Page: "55"},
	}

	start, end, err := ResolveItemPages(toc, "Item 1")
	if err != nil {
		t.Fatalf("ResolveItemPages failed: %v", err)
	}
	if start != nil {
		t.Errorf("item on page 1 should slice from document start, got %v", *start)
	}
	if end == nil || *end != 54 {
		t.Errorf("end marker = %v, want 54", end)
	}

	start, end, err = ResolveItemPages(toc, "Item 8")
	if err != nil {
		t.Fatalf("ResolveItemPages failed: %v", err)
	}
	if start == nil || *start != 54 {
		t.Errorf("start marker = %v, want 54", start)
	}
	if end != nil {
		t.Errorf("last item should slice to document end, got %v", *end)
	}
}

func TestResolveItemPages_UnknownItem(t *testing.T) {
	toc := []TOCEntry{{Item: "Item 1", Page: "1"}}
	if _, _, err := ResolveItemPages(toc, "Item 7"); err == nil {
		t.Error("unknown item must fail")
	}
}

func TestResolveItemPages_NonNumericPage(t *testing.T) {
	toc := []TOCEntry{{Item: "Item 1", Page: "iv"}}
	if _, _, err := ResolveItemPages(toc, "Item 1"); err == nil {
		t.Error("non-numeric page must fail")
	}
}
