package batchcode

import (
	"context"
	"sync"
	"time"

	"lotledger/internal/core/id"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextCodeFunc func(ctx context.Context, cfg Config, itemID id.ID, period time.Time) (string, error)

	mu   sync.Mutex
	seqs map[string]int64
}

// NextCode implements Generator.
func (m *MockGenerator) NextCode(ctx context.Context, cfg Config, itemID id.ID, period time.Time) (string, error) {
	if m.NextCodeFunc != nil {
		return m.NextCodeFunc(ctx, cfg, itemID, period)
	}

	// Default: in-memory sequence per item+month, same code shape as the
	// real implementation.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	key := itemID.String() + "|" + MonthPrefix(cfg, period)
	m.seqs[key]++
	return Format(cfg, period, m.seqs[key]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
