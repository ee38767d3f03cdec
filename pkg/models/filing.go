// Package models defines the shared data types for the filing snapshot engine.
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedMetadata reports a filing record missing or corrupting the
// temporal fields that window math depends on. Batch callers skip the filing
// and count it, never guess a date.
var ErrMalformedMetadata = errors.New("malformed filing metadata")

// FormType enumerates the regulatory form categories the engine understands.
type FormType string

const (
	FormAnnualReport   FormType = "10-K"   // Anchor report
	FormQuarterly      FormType = "10-Q"   // Periodic report
	FormEventReport    FormType = "8-K"    // Event report
	FormProxyStatement FormType = "DEF 14A"
	FormInsiderTrading FormType = "4"      // Ownership report
	FormActivistStake  FormType = "SC 13D" // Activist-stake report
)

// FolderName maps a form type to its on-disk folder name.
// Structure: <root>/<ticker>/<folder>/<YYYY-MM-DD>_<accession>/metadata.json
func (f FormType) FolderName() string {
	switch f {
	case FormProxyStatement:
		return "Proxy_Statement"
	case FormInsiderTrading:
		return "Insider_Trading"
	case FormActivistStake:
		return "Activist_Stake"
	default:
		return string(f)
	}
}

// SavedFile describes one physical file belonging to a filing instance.
type SavedFile struct {
	Name         string `json:"saved_as"`
	Purpose      string `json:"purpose"`       // e.g. "Primary Document", "Segment Revenue Details"
	DocumentType string `json:"document_type"` // e.g. "HTML", "XML"
}

// FilingDocument is an immutable reference to one regulatory document
// instance as materialized on disk. It is created once by the catalog and
// read repeatedly by the correlator and extractors.
type FilingDocument struct {
	Ticker          string      `json:"ticker"`
	Form            FormType    `json:"form"`
	FilingDate      string      `json:"filing_date"`                // ISO date the document was submitted
	PeriodOfReport  string      `json:"period_of_report,omitempty"` // ISO date the content describes
	FiscalYear      *int        `json:"fiscal_year,omitempty"`      // Explicit tag; nil when the source omits it
	AccessionNumber string      `json:"accession_number"`
	SavedFiles      []SavedFile `json:"saved_files"`
	SourcePath      string      `json:"-"` // Resolved filing directory, injected by the catalog
}

// FiledAt parses the filing date. Missing or unparseable dates surface as
// ErrMalformedMetadata so window math never operates on zero dates silently.
func (d *FilingDocument) FiledAt() (time.Time, error) {
	if d.FilingDate == "" {
		return time.Time{}, fmt.Errorf("%w: filing %s has no filing_date", ErrMalformedMetadata, d.AccessionNumber)
	}
	t, err := time.Parse("2006-01-02", d.FilingDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: filing %s has filing_date %q", ErrMalformedMetadata, d.AccessionNumber, d.FilingDate)
	}
	return t, nil
}

// PrimaryFile returns the saved file tagged as the primary narrative
// document, or nil if the filing has none.
func (d *FilingDocument) PrimaryFile() *SavedFile {
	for i := range d.SavedFiles {
		if d.SavedFiles[i].Purpose == "Primary Document" {
			return &d.SavedFiles[i]
		}
	}
	return nil
}

// TableBlock is one raw pipe-delimited grid plus its surrounding prose.
// Grids preserve the raw column count per row, including empty cells; no
// header or merge semantics are assigned here.
type TableBlock struct {
	Grid        [][]string `json:"grid"`
	PreContext  string     `json:"pre_context"`
	PostContext string     `json:"post_context"`
}

// SectionSpan is one candidate extraction of a named logical section from a
// document's full text.
type SectionSpan struct {
	Start  int    `json:"start_offset"`
	End    int    `json:"end_offset"`
	Source string `json:"-"` // The underlying full text; Text() slices it
}

// Length returns the span length in bytes.
func (s SectionSpan) Length() int { return s.End - s.Start }

// Text returns the resolved section text.
func (s SectionSpan) Text() string { return s.Source[s.Start:s.End] }
