package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"filing_snapshot/pkg/core/correlate"
	"filing_snapshot/pkg/models"
)

// SnapshotRepository is the persistence interface the pipeline writes
// through. Kept small so tests can swap in a recorder.
type SnapshotRepository interface {
	SaveBundle(ctx context.Context, runID string, bundle *correlate.Bundle) error
	SaveSection(ctx context.Context, runID, accession, sectionKey, text string) error
	SaveTableBlocks(ctx context.Context, runID, accession, sectionKey string, blocks []models.TableBlock) error
}

// SnapshotRepo stores snapshot results in Postgres with upsert-on-conflict,
// so re-running a ticker/year refreshes rather than duplicates.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

var _ SnapshotRepository = (*SnapshotRepo)(nil)

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// NewRunID mints the identifier that ties one snapshot-construction run's
// rows together.
func NewRunID() string { return uuid.New().String() }

// SaveBundle records the resolved document set for one snapshot.
func (r *SnapshotRepo) SaveBundle(ctx context.Context, runID string, bundle *correlate.Bundle) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	var secondaryAccession *string
	if bundle.SecondaryAnchor != nil {
		secondaryAccession = &bundle.SecondaryAnchor.AccessionNumber
	}
	contextAccessions, err := json.Marshal(map[string][]string{
		"events":    accessions(bundle.EventContext),
		"ownership": accessions(bundle.OwnershipContext),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal context accessions: %w", err)
	}

	query := `
		INSERT INTO filing_snapshots (
			run_id, ticker, fiscal_year,
			anchor_accession, anchor_filing_date,
			secondary_accession, context_accessions
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, fiscal_year)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			anchor_accession = EXCLUDED.anchor_accession,
			anchor_filing_date = EXCLUDED.anchor_filing_date,
			secondary_accession = EXCLUDED.secondary_accession,
			context_accessions = EXCLUDED.context_accessions,
			updated_at = NOW()
	`
	_, err = r.pool.Exec(ctx, query,
		runID, bundle.Ticker, bundle.FiscalYear,
		bundle.Anchor.AccessionNumber, bundle.Anchor.FilingDate,
		secondaryAccession, contextAccessions,
	)
	if err != nil {
		return fmt.Errorf("failed to save bundle for %s FY%d: %w", bundle.Ticker, bundle.FiscalYear, err)
	}
	return nil
}

// SaveSection stores one carved section span.
func (r *SnapshotRepo) SaveSection(ctx context.Context, runID, accession, sectionKey, text string) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	query := `
		INSERT INTO snapshot_sections (run_id, accession_number, section_key, section_text, char_length)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (accession_number, section_key)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			section_text = EXCLUDED.section_text,
			char_length = EXCLUDED.char_length,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, runID, accession, sectionKey, text, len(text))
	if err != nil {
		return fmt.Errorf("failed to save section %s of %s: %w", sectionKey, accession, err)
	}
	return nil
}

// SaveTableBlocks stores the raw grids extracted from one section, in
// document order.
func (r *SnapshotRepo) SaveTableBlocks(ctx context.Context, runID, accession, sectionKey string, blocks []models.TableBlock) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	query := `
		INSERT INTO snapshot_table_blocks (run_id, accession_number, section_key, block_index, grid, pre_context, post_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (accession_number, section_key, block_index)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			grid = EXCLUDED.grid,
			pre_context = EXCLUDED.pre_context,
			post_context = EXCLUDED.post_context,
			updated_at = NOW()
	`
	for i, block := range blocks {
		grid, err := json.Marshal(block.Grid)
		if err != nil {
			return fmt.Errorf("failed to marshal grid %d of %s: %w", i, accession, err)
		}
		if _, err := r.pool.Exec(ctx, query, runID, accession, sectionKey, i, grid, block.PreContext, block.PostContext); err != nil {
			return fmt.Errorf("failed to save table block %d of %s: %w", i, accession, err)
		}
	}
	return nil
}

func accessions(docs []models.FilingDocument) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.AccessionNumber)
	}
	return out
}
