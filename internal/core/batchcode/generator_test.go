package batchcode

import (
	"testing"
	"time"

	"lotledger/internal/core/id"
)

func TestFormat(t *testing.T) {
	period := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig("STL")

	if got := Format(cfg, period, 1); got != "STL-2608-001" {
		t.Errorf("expected STL-2608-001, got %s", got)
	}
	if got := Format(cfg, period, 42); got != "STL-2608-042" {
		t.Errorf("expected STL-2608-042, got %s", got)
	}

	// Sequence wider than the pad just grows.
	if got := Format(cfg, period, 1234); got != "STL-2608-1234" {
		t.Errorf("expected STL-2608-1234, got %s", got)
	}

	wide := Config{Prefix: "ZN", PadWidth: 5}
	if got := Format(wide, period, 7); got != "ZN-2608-00007" {
		t.Errorf("expected ZN-2608-00007, got %s", got)
	}
}

func TestMonthPrefix(t *testing.T) {
	cfg := DefaultConfig("STL")

	jan := time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC)
	if got := MonthPrefix(cfg, jan); got != "STL-2701-" {
		t.Errorf("expected STL-2701-, got %s", got)
	}
}

func TestPrefixFor(t *testing.T) {
	tests := []struct {
		itemCode      string
		defaultPrefix string
		want          string
	}{
		{"steel-rod", "", "STE"},
		{"zn", "", "ZN"},
		{"steel-rod", "RAW", "RAW"},
	}

	for _, tt := range tests {
		if got := PrefixFor(tt.itemCode, tt.defaultPrefix); got != tt.want {
			t.Errorf("PrefixFor(%q, %q) = %q, want %q", tt.itemCode, tt.defaultPrefix, got, tt.want)
		}
	}
}

func TestMockGenerator_SequencesPerItemAndMonth(t *testing.T) {
	gen := &MockGenerator{}
	ctx := t.Context()
	cfg := DefaultConfig("STL")

	itemA := id.New()
	itemB := id.New()
	aug := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sep := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	first, err := gen.NextCode(ctx, cfg, itemA, aug)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := gen.NextCode(ctx, cfg, itemA, aug)
	if first != "STL-2608-001" || second != "STL-2608-002" {
		t.Errorf("expected sequential codes, got %s then %s", first, second)
	}

	// Other items and months restart the sequence.
	other, _ := gen.NextCode(ctx, cfg, itemB, aug)
	if other != "STL-2608-001" {
		t.Errorf("expected STL-2608-001 for a different item, got %s", other)
	}
	next, _ := gen.NextCode(ctx, cfg, itemA, sep)
	if next != "STL-2609-001" {
		t.Errorf("expected STL-2609-001 for a new month, got %s", next)
	}
}
