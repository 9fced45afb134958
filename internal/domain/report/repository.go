package report

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
)

// Repository defines persistence operations for consumption reports.
type Repository interface {
	// GetByBatch returns the report for a batch, or nil when no movement
	// has been recorded yet.
	GetByBatch(ctx context.Context, batchID id.ID) (*ConsumptionReport, error)

	// GetOrCreateForUpdate returns the report with a row lock, creating a
	// zero report on first movement. Must run inside the transaction that
	// writes the ledger entry the report will fold, so the report never
	// lags the ledger observably.
	GetOrCreateForUpdate(ctx context.Context, b *batch.Batch) (*ConsumptionReport, error)

	// Save persists the folded totals.
	Save(ctx context.Context, r *ConsumptionReport) error
}
