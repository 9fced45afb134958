// Package item provides the Item master catalog.
// The tracking core reads items for unit of measure, shelf life, batch
// policy, and stock thresholds; item maintenance itself lives outside this
// service.
package item

import (
	"context"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Item represents one entry of the item master.
type Item struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// UnitOfMeasure is the item's stock-keeping unit (kg, pcs, m, ...)
	UnitOfMeasure string `db:"unit_of_measure" json:"unitOfMeasure"`

	// ShelfLifeDays drives expiry_date on received batches (0 = no expiry)
	ShelfLifeDays int `db:"shelf_life_days" json:"shelfLifeDays"`

	// BatchRequired marks the item as batch-tracked. Tracking is the
	// default policy; items opt out explicitly.
	BatchRequired bool `db:"batch_required" json:"batchRequired"`

	// AutoBatchNumbering selects generated codes over supplier-provided
	// lot numbers.
	AutoBatchNumbering bool `db:"auto_batch_numbering" json:"autoBatchNumbering"`

	// DefaultBatchPrefix overrides the derived code prefix when set.
	DefaultBatchPrefix string `db:"default_batch_prefix" json:"defaultBatchPrefix,omitempty"`

	// MinimumStock is the low-stock threshold for the summary view.
	MinimumStock types.Quantity `db:"minimum_stock" json:"minimumStock"`
}

// Validate checks item invariants.
func (i *Item) Validate(ctx context.Context) error {
	if i.Code == "" {
		return apperror.NewValidation("item code is required").
			WithDetail("field", "code")
	}
	if i.UnitOfMeasure == "" {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "unitOfMeasure")
	}
	if i.ShelfLifeDays < 0 {
		return apperror.NewValidation("shelf life cannot be negative").
			WithDetail("field", "shelfLifeDays")
	}
	return nil
}
