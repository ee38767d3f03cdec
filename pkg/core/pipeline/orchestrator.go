// Package pipeline drives snapshot construction end to end: correlate the
// document bundle for a ticker and fiscal year, carve the narrative sections
// out of the anchor report, probe the financial statements for note
// disclosures, and lift the embedded tables as raw grids.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"filing_snapshot/pkg/core/correlate"
	"filing_snapshot/pkg/core/segment"
	"filing_snapshot/pkg/core/store"
	"filing_snapshot/pkg/core/tables"
	"filing_snapshot/pkg/models"
)

// TextLoader retrieves the primary narrative document for a filing.
// Implementations may read from the local filing tree or a database cache.
type TextLoader interface {
	LoadPrimaryText(doc models.FilingDocument) (string, error)
}

// NoteProbe is one keyword-window pass over the financial statements item.
// Name labels the stored artifact; Keywords are matched as case-insensitive
// literals.
type NoteProbe struct {
	Name       string
	Keywords   []string
	WindowSize int
}

// Config tunes one orchestrator instance. Zero values fall back to defaults
// via NewOrchestrator.
type Config struct {
	// SectionItems are the item keys carved from the anchor report.
	SectionItems []string

	// SectionMinLength is the noise floor for section extraction. TOC rows
	// and running headers produce spans far below it.
	SectionMinLength int

	// StatementsItem is the item keyword windows run over, typically "8".
	StatementsItem string

	// NoteProbes are the keyword passes run over the statements item.
	NoteProbes []NoteProbe

	// Workers bounds concurrent tickers in RunBatch.
	Workers int
}

// Result aggregates what one ticker/year run produced and what it skipped.
// A section that is absent from a filing is a skip, not a failure.
type Result struct {
	Ticker            string
	FiscalYear        int
	RunID             string
	SectionsExtracted int
	SectionsSkipped   int
	TableBlocks       int
	NoteWindows       int
	ContextFilings    int
	Elapsed           time.Duration
}

// Orchestrator wires the correlator, the text loader, and the optional
// persistence layer. All dependencies are constructor-injected.
type Orchestrator struct {
	correlator *correlate.Correlator
	loader     TextLoader
	repo       store.SnapshotRepository
	config     Config
}

// NewOrchestrator creates an orchestrator with defaults filled in. repo may
// be nil, in which case results are computed and logged but not persisted.
func NewOrchestrator(correlator *correlate.Correlator, loader TextLoader, repo store.SnapshotRepository, config Config) *Orchestrator {
	if len(config.SectionItems) == 0 {
		config.SectionItems = []string{"1", "1A", "7"}
	}
	if config.SectionMinLength == 0 {
		config.SectionMinLength = 2000
	}
	if config.StatementsItem == "" {
		config.StatementsItem = "8"
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Orchestrator{
		correlator: correlator,
		loader:     loader,
		repo:       repo,
		config:     config,
	}
}

// RunForTicker builds one snapshot. Failures on individual sections and
// probes are logged and counted, never fatal; only bundle resolution and an
// unreadable anchor document abort the run.
func (o *Orchestrator) RunForTicker(ctx context.Context, ticker string, fiscalYear int) (*Result, error) {
	start := time.Now()
	log.Printf("[Pipeline] Starting snapshot for %s FY%d", ticker, fiscalYear)

	bundle, err := o.correlator.BuildSnapshot(ticker, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("bundle resolution for %s FY%d: %w", ticker, fiscalYear, err)
	}

	result := &Result{
		Ticker:         ticker,
		FiscalYear:     fiscalYear,
		RunID:          store.NewRunID(),
		ContextFilings: len(bundle.EventContext) + len(bundle.OwnershipContext),
	}

	if o.repo != nil {
		if err := o.repo.SaveBundle(ctx, result.RunID, bundle); err != nil {
			return nil, err
		}
	}

	fullText, err := o.loader.LoadPrimaryText(bundle.Anchor)
	if err != nil {
		return nil, fmt.Errorf("anchor document for %s FY%d: %w", ticker, fiscalYear, err)
	}

	o.carveSections(ctx, result, bundle.Anchor.AccessionNumber, fullText)
	o.probeStatements(ctx, result, bundle.Anchor.AccessionNumber, fullText)

	result.Elapsed = time.Since(start)
	log.Printf("[Pipeline] %s FY%d done in %v: %d sections (%d skipped), %d table blocks, %d note windows, %d context filings",
		ticker, fiscalYear, result.Elapsed,
		result.SectionsExtracted, result.SectionsSkipped,
		result.TableBlocks, result.NoteWindows, result.ContextFilings)
	return result, nil
}

// carveSections extracts each configured item and its embedded tables.
func (o *Orchestrator) carveSections(ctx context.Context, result *Result, accession, fullText string) {
	for _, item := range o.config.SectionItems {
		text, err := segment.ExtractItem(fullText, item, o.config.SectionMinLength)
		if err != nil {
			if errors.Is(err, segment.ErrSectionNotFound) {
				log.Printf("[Pipeline] %s: item %s not found, skipping", accession, item)
				result.SectionsSkipped++
				continue
			}
			log.Printf("[Pipeline] %s: item %s failed: %v", accession, item, err)
			result.SectionsSkipped++
			continue
		}
		result.SectionsExtracted++

		sectionKey := "Item " + item
		blocks := tables.ExtractRawTables(text)
		result.TableBlocks += len(blocks)

		if o.repo != nil {
			if err := o.repo.SaveSection(ctx, result.RunID, accession, sectionKey, text); err != nil {
				log.Printf("[Pipeline] %s: saving %s failed: %v", accession, sectionKey, err)
			}
			if len(blocks) > 0 {
				if err := o.repo.SaveTableBlocks(ctx, result.RunID, accession, sectionKey, blocks); err != nil {
					log.Printf("[Pipeline] %s: saving tables of %s failed: %v", accession, sectionKey, err)
				}
			}
		}
	}
}

// probeStatements runs the keyword passes over the financial statements item.
// When that item cannot be carved, probes fall back to the whole document;
// the windows are small enough that the wider haystack only costs scan time.
func (o *Orchestrator) probeStatements(ctx context.Context, result *Result, accession, fullText string) {
	if len(o.config.NoteProbes) == 0 {
		return
	}

	haystack, err := segment.ExtractItem(fullText, o.config.StatementsItem, o.config.SectionMinLength)
	if err != nil {
		log.Printf("[Pipeline] %s: item %s unavailable (%v), probing full document", accession, o.config.StatementsItem, err)
		haystack = fullText
	}

	for _, probe := range o.config.NoteProbes {
		windows := segment.MergeKeywordWindows(haystack, probe.Keywords, probe.WindowSize)
		if windows == "" {
			log.Printf("[Pipeline] %s: probe %q matched nothing", accession, probe.Name)
			continue
		}
		result.NoteWindows++
		if o.repo != nil {
			if err := o.repo.SaveSection(ctx, result.RunID, accession, "Note: "+probe.Name, windows); err != nil {
				log.Printf("[Pipeline] %s: saving probe %q failed: %v", accession, probe.Name, err)
			}
		}
	}
}

// RunBatch processes tickers concurrently under the configured worker bound.
// One ticker's failure never stops the batch; the error map records what
// failed and why.
func (o *Orchestrator) RunBatch(ctx context.Context, tickers []string, fiscalYear int) ([]*Result, map[string]error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*Result
		failed  = make(map[string]error)
	)
	sem := make(chan struct{}, o.config.Workers)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := o.RunForTicker(ctx, ticker, fiscalYear)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[Pipeline] %s FY%d failed: %v", ticker, fiscalYear, err)
				failed[ticker] = err
				return
			}
			results = append(results, res)
		}(ticker)
	}
	wg.Wait()

	log.Printf("[Pipeline] Batch complete: %d succeeded, %d failed of %d tickers",
		len(results), len(failed), len(tickers))
	return results, failed
}
