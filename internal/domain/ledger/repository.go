package ledger

import (
	"context"
	"time"

	"lotledger/internal/core/id"
)

// Repository defines persistence operations for the movement ledger.
// The ledger is append-only: there is deliberately no update or delete.
type Repository interface {
	// Append inserts movement entries. Must be called within the same
	// transaction as the batch mutation the entries describe.
	Append(ctx context.Context, entries []*Entry) error

	// ListByBatch returns the full history of a batch, oldest first.
	ListByBatch(ctx context.Context, batchID id.ID) ([]Entry, error)

	// ListByItem returns movements of an item, newest first.
	ListByItem(ctx context.Context, itemID id.ID, filter Filter) ([]Entry, error)

	// ListByVendor returns movements tied to a vendor, newest first.
	ListByVendor(ctx context.Context, vendorID id.ID, filter Filter) ([]Entry, error)

	// DispatchedTotal sums quantity dispatched from a batch to date.
	DispatchedTotal(ctx context.Context, batchID id.ID) (int64, error)
}

// Filter narrows movement queries by date window.
type Filter struct {
	FromDate *time.Time
	ToDate   *time.Time
	RefType  *RefType
	Limit    int
	Offset   int
}
