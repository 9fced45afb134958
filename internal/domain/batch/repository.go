package batch

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Repository defines persistence operations for batches.
type Repository interface {
	// Create inserts a new batch.
	Create(ctx context.Context, b *Batch) error

	// GetByID returns a batch or a NOT_FOUND AppError.
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetByIDForUpdate returns a batch with a row lock. Every
	// state-mutating operation must load through this method so two
	// operations racing on the same batch serialize instead of both
	// reading the same quantity snapshot.
	GetByIDForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	// Update persists counter and metadata changes. Fails with
	// CONCURRENT_MODIFICATION when the stored version moved.
	Update(ctx context.Context, b *Batch) error

	// ListByItem returns batches of an item, newest first.
	ListByItem(ctx context.Context, itemID id.ID, filter ListFilter) ([]Batch, error)

	// AvailableByItemFIFO returns batches with raw quantity available for
	// issue (quality good or pending inspection), oldest manufacture date
	// first. This is the FIFO candidate order.
	AvailableByItemFIFO(ctx context.Context, itemID id.ID) ([]Batch, error)

	// CountByCodePrefix counts batches of an item whose code starts with
	// prefix. Used for sequence assignment within an item+month.
	CountByCodePrefix(ctx context.Context, itemID id.ID, prefix string) (int64, error)

	// SummaryByItem aggregates per-state totals for an item.
	SummaryByItem(ctx context.Context, itemID id.ID) (Summary, error)
}

// ListFilter narrows ListByItem results.
type ListFilter struct {
	QualityStatus *QualityStatus
	OnlyAvailable bool // raw+finished > 0
	Limit         int
	Offset        int
}

// Summary holds per-state totals across all batches of one item.
type Summary struct {
	ItemID      id.ID          `json:"itemId"`
	BatchCount  int            `json:"batchCount"`
	QtyRaw      types.Quantity `json:"qtyRaw"`
	QtyWIP      types.Quantity `json:"qtyWip"`
	QtyFinished types.Quantity `json:"qtyFinished"`
	QtyScrap    types.Quantity `json:"qtyScrap"`
}

// Available is the issuable quantity across the item (Raw + Finished).
func (s Summary) Available() types.Quantity {
	return s.QtyRaw + s.QtyFinished
}
