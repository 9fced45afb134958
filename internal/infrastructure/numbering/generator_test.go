package numbering

import (
	"context"
	"testing"
	"time"

	"lotledger/internal/core/batchcode"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
)

// stubRepo overrides only the method the generator uses.
type stubRepo struct {
	batch.Repository
	count      int64
	lastPrefix string
}

func (s *stubRepo) CountByCodePrefix(ctx context.Context, itemID id.ID, prefix string) (int64, error) {
	s.lastPrefix = prefix
	return s.count, nil
}

func TestNextCode(t *testing.T) {
	repo := &stubRepo{count: 2}
	svc := New(repo)

	period := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	code, err := svc.NextCode(t.Context(), batchcode.DefaultConfig("STL"), id.New(), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if code != "STL-2608-003" {
		t.Errorf("expected STL-2608-003, got %s", code)
	}
	if repo.lastPrefix != "STL-2608-" {
		t.Errorf("expected month prefix STL-2608-, got %s", repo.lastPrefix)
	}
}
