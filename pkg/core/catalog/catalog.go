// Package catalog reads filing metadata and document text from the local
// filing tree. Layout: <root>/<ticker>/<form folder>/<YYYY-MM-DD>_<accession>/
// with a metadata.json per filing instance plus the saved document files.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filing_snapshot/pkg/models"
)

// ErrNoPrimaryDocument reports a filing whose metadata lists no file tagged
// as the primary narrative document.
var ErrNoPrimaryDocument = errors.New("filing has no primary document")

// FSCatalog is a read-only view over the filing tree. It satisfies
// correlate.Catalog.
type FSCatalog struct {
	root string
}

func NewFSCatalog(root string) *FSCatalog {
	return &FSCatalog{root: root}
}

// Filings returns every filing of one form type for a ticker, in folder
// order. Folders that do not match the <date>_<accession> naming convention
// or carry unreadable metadata are skipped, not fatal: one bad instance must
// not sink the ticker.
func (c *FSCatalog) Filings(ticker string, form models.FormType) ([]models.FilingDocument, error) {
	return c.FilingsInRange(ticker, form, time.Time{}, time.Time{})
}

// FilingsInRange filters by the folder-name date before reading any
// metadata. Zero start/end mean unbounded on that side; both boundaries are
// inclusive.
func (c *FSCatalog) FilingsInRange(ticker string, form models.FormType, start, end time.Time) ([]models.FilingDocument, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker must be non-empty")
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("range start %s after end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	baseDir := filepath.Join(c.root, ticker, form.FolderName())
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", baseDir, err)
	}

	var docs []models.FilingDocument
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folderDate, ok := parseFolderDate(entry.Name())
		if !ok {
			continue
		}
		if !start.IsZero() && folderDate.Before(start) {
			continue
		}
		if !end.IsZero() && folderDate.After(end) {
			continue
		}

		instanceDir := filepath.Join(baseDir, entry.Name())
		doc, err := readMetadata(instanceDir)
		if err != nil {
			log.Printf("[Catalog] Skipping %s: %v", instanceDir, err)
			continue
		}
		doc.Ticker = ticker
		doc.Form = form
		doc.SourcePath = instanceDir
		docs = append(docs, *doc)
	}
	return docs, nil
}

// LoadPrimaryText reads the filing's primary narrative document.
func (c *FSCatalog) LoadPrimaryText(doc models.FilingDocument) (string, error) {
	primary := doc.PrimaryFile()
	if primary == nil {
		return "", fmt.Errorf("%w: %s", ErrNoPrimaryDocument, doc.AccessionNumber)
	}
	data, err := os.ReadFile(filepath.Join(doc.SourcePath, primary.Name))
	if err != nil {
		return "", fmt.Errorf("reading primary document for %s: %w", doc.AccessionNumber, err)
	}
	return string(data), nil
}

// FindFingerprintTable scans the filing's HTML-derived markdown table files
// and returns the content of the first one containing ALL fingerprint
// keywords, case-insensitive. Returns "" when nothing matches; the caller
// falls back to section slicing.
func (c *FSCatalog) FindFingerprintTable(doc models.FilingDocument, keywords []string) string {
	for _, f := range doc.SavedFiles {
		if f.DocumentType != "HTML" || !strings.HasSuffix(f.Name, ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(doc.SourcePath, f.Name))
		if err != nil {
			continue
		}
		content := string(data)
		lower := strings.ToLower(content)
		if containsAll(lower, keywords) {
			return content
		}
	}
	return ""
}

// FindFileByPurpose returns the first saved file whose purpose contains all
// the given terms, case-insensitive. Used to pick dedicated embedded table
// files (e.g. "Segment" + "Revenue") ahead of narrative text.
func FindFileByPurpose(doc models.FilingDocument, terms ...string) *models.SavedFile {
	for i := range doc.SavedFiles {
		purpose := strings.ToLower(doc.SavedFiles[i].Purpose)
		if containsAll(purpose, terms) {
			return &doc.SavedFiles[i]
		}
	}
	return nil
}

func containsAll(haystackLower string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(haystackLower, strings.ToLower(n)) {
			return false
		}
	}
	return len(needles) > 0
}

func parseFolderDate(name string) (time.Time, bool) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func readMetadata(instanceDir string) (*models.FilingDocument, error) {
	data, err := os.ReadFile(filepath.Join(instanceDir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("metadata.json unreadable: %w", err)
	}
	var doc models.FilingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: metadata.json does not parse: %v", models.ErrMalformedMetadata, err)
	}
	if doc.AccessionNumber == "" || doc.FilingDate == "" {
		return nil, fmt.Errorf("%w: metadata.json missing accession_number or filing_date", models.ErrMalformedMetadata)
	}
	return &doc, nil
}
