package correlate

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"filing_snapshot/pkg/core/utils"
	"filing_snapshot/pkg/models"
)

// Window lengths for context filings. Event disclosures (8-K) stay relevant
// longer than individual trading disclosures (Form 4), so the lookbacks
// differ deliberately.
const (
	EventLookbackDays     = 365
	OwnershipLookbackDays = 180
	ActivistAroundDays    = 365
)

var (
	// ErrNoAnchorFiling means no anchor report carries the requested fiscal
	// year tag. Snapshot construction must abort for that ticker/year rather
	// than substitute a guess.
	ErrNoAnchorFiling = errors.New("no anchor filing for fiscal year")

	// ErrNoSecondaryAnchor means no proxy statement was filed after the
	// anchor date. Treated as explicit absence by callers.
	ErrNoSecondaryAnchor = errors.New("no proxy statement after anchor date")
)

// Catalog supplies already-fetched filing metadata. Implementations read from
// disk or a database; the correlator itself performs no I/O beyond these
// reads and never mutates what it is given.
type Catalog interface {
	Filings(ticker string, form models.FormType) ([]models.FilingDocument, error)
}

// Bundle is a leak-free set of source documents for one snapshot: within one
// run, no document filed after the secondary anchor's date is included.
type Bundle struct {
	Ticker           string
	FiscalYear       int
	Anchor           models.FilingDocument
	SecondaryAnchor  *models.FilingDocument // nil when no proxy follows the anchor
	EventContext     []models.FilingDocument
	OwnershipContext []models.FilingDocument
}

// Correlator resolves snapshot bundles against a catalog.
type Correlator struct {
	catalog Catalog
}

func NewCorrelator(catalog Catalog) *Correlator {
	return &Correlator{catalog: catalog}
}

// ResolveAnchor finds the single anchor report for ticker + fiscal year.
// Only filings whose explicit fiscal-year tag equals the target survive;
// missing tags are excluded, never coerced from dates. Amendments and
// duplicates are settled by taking the latest filing date.
func (c *Correlator) ResolveAnchor(ticker string, fiscalYear int) (models.FilingDocument, error) {
	all, err := c.catalog.Filings(ticker, models.FormAnnualReport)
	if err != nil {
		return models.FilingDocument{}, err
	}

	type dated struct {
		doc models.FilingDocument
		at  time.Time
	}
	var candidates []dated
	for _, doc := range all {
		if doc.FiscalYear == nil || *doc.FiscalYear != fiscalYear {
			continue
		}
		at, err := doc.FiledAt()
		if err != nil {
			log.Printf("[Correlate] Skipping %s: %v", doc.AccessionNumber, err)
			continue
		}
		candidates = append(candidates, dated{doc, at})
	}

	winner, ok := utils.MaxBy(candidates, func(d dated) int64 { return d.at.Unix() })
	if !ok {
		return models.FilingDocument{}, fmt.Errorf("%w: %s FY%d", ErrNoAnchorFiling, ticker, fiscalYear)
	}
	return winner.doc, nil
}

// ResolveSecondaryAnchor finds the first proxy statement filed strictly
// after the anchor date. The earliest such filing wins: the secondary anchor
// is the temporally closest subsequent governance event, not just any later
// one.
func (c *Correlator) ResolveSecondaryAnchor(ticker string, anchorDate time.Time) (models.FilingDocument, error) {
	if anchorDate.IsZero() {
		return models.FilingDocument{}, fmt.Errorf("anchor date is zero")
	}
	all, err := c.catalog.Filings(ticker, models.FormProxyStatement)
	if err != nil {
		return models.FilingDocument{}, err
	}

	type dated struct {
		doc models.FilingDocument
		at  time.Time
	}
	var candidates []dated
	for _, doc := range all {
		at, err := doc.FiledAt()
		if err != nil {
			log.Printf("[Correlate] Skipping %s: %v", doc.AccessionNumber, err)
			continue
		}
		if at.After(anchorDate) {
			candidates = append(candidates, dated{doc, at})
		}
	}

	winner, ok := utils.MinBy(candidates, func(d dated) int64 { return d.at.Unix() })
	if !ok {
		return models.FilingDocument{}, fmt.Errorf("%w: %s after %s", ErrNoSecondaryAnchor, ticker, anchorDate.Format("2006-01-02"))
	}
	return winner.doc, nil
}

// ResolveContextFilings gathers the two independently-windowed context sets
// relative to the reference date: event reports within a 365-day lookback
// and ownership reports within a 180-day lookback, both inclusive on both
// ends. Results are ordered by filing date ascending.
func (c *Correlator) ResolveContextFilings(ticker string, reference time.Time) (events, ownership []models.FilingDocument, err error) {
	eventWin, err := NewWindow(reference, DirectionLookback, EventLookbackDays, true)
	if err != nil {
		return nil, nil, err
	}
	ownWin, err := NewWindow(reference, DirectionLookback, OwnershipLookbackDays, true)
	if err != nil {
		return nil, nil, err
	}

	events, err = c.filingsInWindow(ticker, models.FormEventReport, eventWin)
	if err != nil {
		return nil, nil, err
	}
	ownership, err = c.filingsInWindow(ticker, models.FormInsiderTrading, ownWin)
	if err != nil {
		return nil, nil, err
	}
	return events, ownership, nil
}

// CountActivistStakes counts activist-stake reports within a symmetric
// window around the period end date. Forward-window variant used by the
// stakeholder signal path.
func (c *Correlator) CountActivistStakes(ticker string, periodEnd time.Time) (int, error) {
	win, err := NewWindow(periodEnd, DirectionAround, ActivistAroundDays, true)
	if err != nil {
		return 0, err
	}
	docs, err := c.filingsInWindow(ticker, models.FormActivistStake, win)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// BuildSnapshot runs the three resolution stages in order. Absence at an
// earlier stage short-circuits the later ones: no anchor means no attempt at
// a secondary anchor, and no secondary anchor means empty context sets
// rather than windows anchored on a placeholder date.
func (c *Correlator) BuildSnapshot(ticker string, fiscalYear int) (*Bundle, error) {
	anchor, err := c.ResolveAnchor(ticker, fiscalYear)
	if err != nil {
		return nil, err
	}
	bundle := &Bundle{Ticker: ticker, FiscalYear: fiscalYear, Anchor: anchor}

	anchorDate, err := anchor.FiledAt()
	if err != nil {
		return nil, err
	}

	secondary, err := c.ResolveSecondaryAnchor(ticker, anchorDate)
	if err != nil {
		if errors.Is(err, ErrNoSecondaryAnchor) {
			log.Printf("[Correlate] %s FY%d: no proxy after anchor, snapshot has no context window", ticker, fiscalYear)
			return bundle, nil
		}
		return nil, err
	}
	bundle.SecondaryAnchor = &secondary

	refDate, err := secondary.FiledAt()
	if err != nil {
		return nil, err
	}
	events, ownership, err := c.ResolveContextFilings(ticker, refDate)
	if err != nil {
		return nil, err
	}
	bundle.EventContext = events
	bundle.OwnershipContext = ownership
	return bundle, nil
}

// filingsInWindow filters one form type through a window, skipping documents
// with malformed dates, and sorts survivors by filing date ascending.
func (c *Correlator) filingsInWindow(ticker string, form models.FormType, win FilingWindow) ([]models.FilingDocument, error) {
	all, err := c.catalog.Filings(ticker, form)
	if err != nil {
		return nil, err
	}

	type dated struct {
		doc models.FilingDocument
		at  time.Time
	}
	var inside []dated
	for _, doc := range all {
		at, err := doc.FiledAt()
		if err != nil {
			log.Printf("[Correlate] Skipping %s: %v", doc.AccessionNumber, err)
			continue
		}
		if win.Contains(at) {
			inside = append(inside, dated{doc, at})
		}
	}

	sort.Slice(inside, func(i, j int) bool { return inside[i].at.Before(inside[j].at) })

	out := make([]models.FilingDocument, 0, len(inside))
	for _, d := range inside {
		out = append(out, d.doc)
	}
	return out, nil
}
