// Package numbering provides the PostgreSQL-backed batch code generator.
// It implements core/batchcode.Generator on top of the batch repository.
package numbering

import (
	"context"
	"time"

	"lotledger/internal/core/batchcode"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
)

// Service assigns sequential batch codes scoped to item + month.
//
// The sequence is derived by counting existing codes under the month prefix
// inside the caller's transaction. Two concurrent receipts of the same item
// can race to the same sequence; the unique index on batch_code turns the
// loser into a DUPLICATE error rather than a silent collision.
type Service struct {
	batches batch.Repository
}

// New creates a new batch code generator.
func New(batches batch.Repository) *Service {
	return &Service{batches: batches}
}

var _ batchcode.Generator = (*Service)(nil)

// NextCode generates the next code for an item, e.g. STL-2608-001.
func (s *Service) NextCode(ctx context.Context, cfg batchcode.Config, itemID id.ID, period time.Time) (string, error) {
	prefix := batchcode.MonthPrefix(cfg, period)

	count, err := s.batches.CountByCodePrefix(ctx, itemID, prefix)
	if err != nil {
		return "", err
	}

	return batchcode.Format(cfg, period, count+1), nil
}
