package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"filing_snapshot/pkg/core/correlate"
	"filing_snapshot/pkg/models"
)

// memCatalog serves filings per ticker and form.
type memCatalog struct {
	docs map[string]map[models.FormType][]models.FilingDocument
}

func (m *memCatalog) Filings(ticker string, form models.FormType) ([]models.FilingDocument, error) {
	return m.docs[ticker][form], nil
}

// memLoader maps accession numbers to document text.
type memLoader struct {
	texts map[string]string
}

func (m *memLoader) LoadPrimaryText(doc models.FilingDocument) (string, error) {
	text, ok := m.texts[doc.AccessionNumber]
	if !ok {
		return "", fmt.Errorf("no text for %s", doc.AccessionNumber)
	}
	return text, nil
}

// recorderRepo captures what the orchestrator would persist.
type recorderRepo struct {
	mu       sync.Mutex
	bundles  []string
	sections map[string]string
	blocks   int
}

func newRecorderRepo() *recorderRepo {
	return &recorderRepo{sections: make(map[string]string)}
}

func (r *recorderRepo) SaveBundle(ctx context.Context, runID string, bundle *correlate.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles = append(r.bundles, bundle.Ticker)
	return nil
}

func (r *recorderRepo) SaveSection(ctx context.Context, runID, accession, sectionKey, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[sectionKey] = text
	return nil
}

func (r *recorderRepo) SaveTableBlocks(ctx context.Context, runID, accession, sectionKey string, blocks []models.TableBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks += len(blocks)
	return nil
}

func intPtr(v int) *int { return &v }

// anchorText builds a small but structurally complete annual report: three
// narrative items, a statements item with a pipe table and a tax note.
func anchorText() string {
	var sb strings.Builder
	sb.WriteString("Item 1. Business\n")
	sb.WriteString(strings.Repeat("We make anvils. ", 40))
	sb.WriteString("\nItem 1A. Risk Factors\n")
	sb.WriteString(strings.Repeat("Anvils are heavy. ", 40))
	sb.WriteString("\nItem 2. Properties\n")
	sb.WriteString(strings.Repeat("One factory. ", 40))
	sb.WriteString("\nItem 7. Management's Discussion\n")
	sb.WriteString(strings.Repeat("Revenue grew. ", 40))
	sb.WriteString("\n| Line | 2024 | 2023 |\n| Revenue | 900 | 800 |\n")
	sb.WriteString(strings.Repeat("Margins held. ", 20))
	sb.WriteString("\nItem 8. Financial Statements\n")
	sb.WriteString(strings.Repeat("The notes follow. ", 30))
	sb.WriteString(strings.Repeat("More notes. ", 20))
	sb.WriteString("The provision for income taxes was 21 percent. ")
	sb.WriteString(strings.Repeat("Closing remarks. ", 20))
	sb.WriteString("\nItem 9. Changes in Accountants\n")
	sb.WriteString(strings.Repeat("None. ", 120))
	return sb.String()
}

func testCatalog() *memCatalog {
	return &memCatalog{docs: map[string]map[models.FormType][]models.FilingDocument{
		"ACME": {
			models.FormAnnualReport: {{
				Ticker:          "ACME",
				FilingDate:      "2024-11-01",
				FiscalYear:      intPtr(2024),
				AccessionNumber: "acme-10k",
			}},
			models.FormProxyStatement: {{
				Ticker:          "ACME",
				FilingDate:      "2025-01-15",
				AccessionNumber: "acme-proxy",
			}},
		},
	}}
}

func testConfig() Config {
	return Config{
		SectionItems:     []string{"1", "1A", "7"},
		SectionMinLength: 100,
		StatementsItem:   "8",
		NoteProbes: []NoteProbe{
			{Name: "Income Taxes", Keywords: []string{"provision for income taxes"}, WindowSize: 80},
			{Name: "Warranty", Keywords: []string{"warranty obligations"}, WindowSize: 80},
		},
	}
}

func TestRunForTicker_FullFlow(t *testing.T) {
	loader := &memLoader{texts: map[string]string{"acme-10k": anchorText()}}
	repo := newRecorderRepo()
	o := NewOrchestrator(correlate.NewCorrelator(testCatalog()), loader, repo, testConfig())

	result, err := o.RunForTicker(context.Background(), "ACME", 2024)
	if err != nil {
		t.Fatalf("RunForTicker failed: %v", err)
	}

	if result.SectionsExtracted != 3 {
		t.Errorf("expected 3 sections, got %d", result.SectionsExtracted)
	}
	if result.SectionsSkipped != 0 {
		t.Errorf("expected no skips, got %d", result.SectionsSkipped)
	}
	if result.NoteWindows != 1 {
		t.Errorf("only the tax probe should hit, got %d windows", result.NoteWindows)
	}
	if result.TableBlocks != 1 {
		t.Errorf("expected the MD&A table to be lifted, got %d blocks", result.TableBlocks)
	}
	if result.RunID == "" {
		t.Error("run ID missing")
	}

	if len(repo.bundles) != 1 {
		t.Errorf("bundle not persisted")
	}
	if _, ok := repo.sections["Item 1A"]; !ok {
		t.Errorf("Item 1A not persisted, have %v", sectionKeys(repo))
	}
	note, ok := repo.sections["Note: Income Taxes"]
	if !ok {
		t.Fatalf("tax note not persisted, have %v", sectionKeys(repo))
	}
	if !strings.Contains(note, "provision for income taxes") {
		t.Errorf("note window missing the keyword: %q", note)
	}
}

func TestRunForTicker_MissingSectionsAreSkipsNotFailures(t *testing.T) {
	// A document with only Item 7 present: the other items are skipped, the
	// run still succeeds.
	text := "Item 7. Management's Discussion\n" + strings.Repeat("x", 500) + "\nItem 8. Financial Statements\n" + strings.Repeat("y", 500)
	loader := &memLoader{texts: map[string]string{"acme-10k": text}}
	o := NewOrchestrator(correlate.NewCorrelator(testCatalog()), loader, nil, testConfig())

	result, err := o.RunForTicker(context.Background(), "ACME", 2024)
	if err != nil {
		t.Fatalf("RunForTicker failed: %v", err)
	}
	if result.SectionsExtracted != 1 {
		t.Errorf("expected 1 section, got %d", result.SectionsExtracted)
	}
	if result.SectionsSkipped != 2 {
		t.Errorf("expected 2 skips, got %d", result.SectionsSkipped)
	}
}

func TestRunForTicker_NoAnchorFails(t *testing.T) {
	loader := &memLoader{texts: map[string]string{}}
	o := NewOrchestrator(correlate.NewCorrelator(testCatalog()), loader, nil, testConfig())

	_, err := o.RunForTicker(context.Background(), "ACME", 1999)
	if !errors.Is(err, correlate.ErrNoAnchorFiling) {
		t.Errorf("expected ErrNoAnchorFiling, got %v", err)
	}
}

func TestRunForTicker_UnreadableAnchorFails(t *testing.T) {
	loader := &memLoader{texts: map[string]string{}} // no text for acme-10k
	o := NewOrchestrator(correlate.NewCorrelator(testCatalog()), loader, nil, testConfig())

	if _, err := o.RunForTicker(context.Background(), "ACME", 2024); err == nil {
		t.Error("unreadable anchor document must fail the run")
	}
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	cat := testCatalog()
	cat.docs["BOLT"] = map[models.FormType][]models.FilingDocument{
		models.FormAnnualReport: {{
			Ticker:          "BOLT",
			FilingDate:      "2024-10-01",
			FiscalYear:      intPtr(2024),
			AccessionNumber: "bolt-10k",
		}},
	}
	// ACME has text, BOLT does not: BOLT fails, ACME must still complete.
	loader := &memLoader{texts: map[string]string{"acme-10k": anchorText()}}
	o := NewOrchestrator(correlate.NewCorrelator(cat), loader, nil, testConfig())

	results, failed := o.RunBatch(context.Background(), []string{"ACME", "BOLT"}, 2024)
	if len(results) != 1 || results[0].Ticker != "ACME" {
		t.Errorf("expected ACME to succeed, got %+v", results)
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if _, ok := failed["BOLT"]; !ok {
		t.Errorf("BOLT should be the failed ticker, got %v", failed)
	}
}

func sectionKeys(r *recorderRepo) []string {
	keys := make([]string, 0, len(r.sections))
	for k := range r.sections {
		keys = append(keys, k)
	}
	return keys
}
