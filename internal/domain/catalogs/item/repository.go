package item

import (
	"context"

	"lotledger/internal/core/id"
)

// Reader provides read-only access to the item master.
// The tracking core never mutates items.
type Reader interface {
	// GetByID returns the item or a NOT_FOUND AppError.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetByCode returns the item by its code or a NOT_FOUND AppError.
	GetByCode(ctx context.Context, code string) (*Item, error)
}
