// Package batchcode provides domain contracts for batch code generation.
// Implementations live in the infrastructure layer.
package batchcode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lotledger/internal/core/id"
)

// Config holds batch numbering configuration for one item.
type Config struct {
	// Prefix added to all codes (item's configured prefix, or derived
	// from the item code via PrefixFor)
	Prefix string

	// PadWidth is the minimum sequence width (default 3)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 3,
	}
}

// Generator generates sequential batch codes.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// NextCode generates the next batch code for an item.
	// Pattern: PREFIX-YYMM-XXX (e.g., STL-2608-001), sequence scoped to
	// item + month.
	NextCode(ctx context.Context, cfg Config, itemID id.ID, period time.Time) (string, error)
}

// PrefixFor resolves the code prefix: the item's configured default, or the
// first three letters of the item code uppercased.
func PrefixFor(itemCode, defaultPrefix string) string {
	if defaultPrefix != "" {
		return defaultPrefix
	}
	code := strings.ToUpper(itemCode)
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}

// Format renders a batch code from its parts.
func Format(cfg Config, period time.Time, seq int64) string {
	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 3
	}
	return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("0601"), pad, seq)
}

// MonthPrefix returns the "PREFIX-YYMM-" part used to scope sequence lookups.
func MonthPrefix(cfg Config, period time.Time) string {
	return fmt.Sprintf("%s-%s-", cfg.Prefix, period.Format("0601"))
}
