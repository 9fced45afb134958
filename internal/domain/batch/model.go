package batch

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Batch is one traceable lot of an item. Quantities are split across
// lifecycle states; every transition between states preserves the total
// except dispatch, which moves quantity out of the batch entirely (the
// ledger keeps the dispatched history).
//
// Batches are never deleted: a fully consumed batch stays behind with zero
// remaining quantity for audit.
type Batch struct {
	ID        id.ID  `db:"id" json:"id"`
	ItemID    id.ID  `db:"item_id" json:"itemId"`
	BatchCode string `db:"batch_code" json:"batchCode"`

	// Quantities by state. WIP is an open string-keyed map so new
	// processes need no schema change (stored as JSONB).
	QtyRaw      types.Quantity            `db:"qty_raw" json:"qtyRaw"`
	WIP         map[Process]types.Quantity `db:"qty_wip" json:"qtyWip"`
	QtyFinished types.Quantity            `db:"qty_finished" json:"qtyFinished"`
	QtyScrap    types.Quantity            `db:"qty_scrap" json:"qtyScrap"`

	// Metadata
	UnitOfMeasure   string        `db:"unit_of_measure" json:"unitOfMeasure"`
	StorageLocation string        `db:"storage_location" json:"storageLocation"`
	MfgDate         *time.Time    `db:"mfg_date" json:"mfgDate,omitempty"`
	ExpiryDate      *time.Time    `db:"expiry_date" json:"expiryDate,omitempty"`
	SupplierLot     string        `db:"supplier_lot" json:"supplierLot,omitempty"`
	UnitCost        types.Money   `db:"unit_cost" json:"unitCost"`
	QualityStatus   QualityStatus `db:"quality_status" json:"qualityStatus"`

	// Source references
	SourceType    SourceType `db:"source_type" json:"sourceType"`
	SourceRefID   *id.ID     `db:"source_ref_id" json:"sourceRefId,omitempty"`
	ParentBatchID *id.ID     `db:"parent_batch_id" json:"parentBatchId,omitempty"`

	// Audit
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// New creates a batch shell with generated ID and timestamps.
func New(itemID id.ID, batchCode, uom string) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:            id.New(),
		ItemID:        itemID,
		BatchCode:     batchCode,
		UnitOfMeasure: uom,
		WIP:           make(map[Process]types.Quantity),
		QualityStatus: QualityPendingInspection,
		SourceType:    SourcePurchase,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *Batch) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// WIPQty returns the quantity sitting in one process.
func (b *Batch) WIPQty(p Process) types.Quantity {
	if b.WIP == nil {
		return 0
	}
	return b.WIP[p]
}

// WIPTotal returns the quantity across all processes.
func (b *Batch) WIPTotal() types.Quantity {
	var total types.Quantity
	for _, q := range b.WIP {
		total += q
	}
	return total
}

// TotalQuantity is the live quantity across all states. Dispatched quantity
// has left the batch and is only visible through the ledger.
func (b *Batch) TotalQuantity() types.Quantity {
	return b.QtyRaw + b.WIPTotal() + b.QtyFinished + b.QtyScrap
}

// AvailableQuantity is what can be issued or dispatched (Raw + Finished).
func (b *Batch) AvailableQuantity() types.Quantity {
	return b.QtyRaw + b.QtyFinished
}

// IsExpired reports whether the batch is past its expiry date.
func (b *Batch) IsExpired(today time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return b.ExpiryDate.Before(day)
}

// ExpiresWithin reports whether the batch expires inside the given window.
func (b *Batch) ExpiresWithin(today time.Time, days int) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(today.AddDate(0, 0, days))
}

// AgeDays returns the age of the batch in days since manufacture.
func (b *Batch) AgeDays(today time.Time) int {
	if b.MfgDate == nil {
		return 0
	}
	return int(today.Sub(*b.MfgDate).Hours() / 24)
}

// stateQty reads the counter behind a state.
func (b *Batch) stateQty(s State) types.Quantity {
	switch {
	case s == StateRaw:
		return b.QtyRaw
	case s == StateFinished:
		return b.QtyFinished
	case s == StateScrap:
		return b.QtyScrap
	case s.IsWIP():
		p, _ := s.Process()
		return b.WIPQty(p)
	default:
		return 0
	}
}

// addStateQty adjusts the counter behind a state by delta.
func (b *Batch) addStateQty(s State, delta types.Quantity) {
	switch {
	case s == StateRaw:
		b.QtyRaw += delta
	case s == StateFinished:
		b.QtyFinished += delta
	case s == StateScrap:
		b.QtyScrap += delta
	case s.IsWIP():
		p, _ := s.Process()
		if b.WIP == nil {
			b.WIP = make(map[Process]types.Quantity)
		}
		b.WIP[p] += delta
	}
}

// MoveQuantity moves quantity between states within this batch.
// from == "" credits an external receipt; to == StateDispatched debits
// without a counterpart (the terminal sink). Every other move preserves
// TotalQuantity.
func (b *Batch) MoveQuantity(from, to State, q types.Quantity) error {
	if !q.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("batch_code", b.BatchCode)
	}

	if from != "" {
		available := b.stateQty(from)
		if available < q {
			switch from {
			case StateFinished:
				return apperror.NewInsufficientFinished(b.BatchCode, q.Float64(), available.Float64())
			default:
				return apperror.NewInsufficientQuantity(b.BatchCode, q.Float64(), available.Float64()).
					WithDetail("from_state", string(from))
			}
		}
		b.addStateQty(from, -q)
	}

	if to != StateDispatched {
		b.addStateQty(to, q)
	}

	b.Touch()
	return nil
}

// Validate checks batch invariants.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.ItemID) {
		return apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	if b.BatchCode == "" {
		return apperror.NewValidation("batch code is required").
			WithDetail("field", "batchCode")
	}
	if b.UnitOfMeasure == "" {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "unitOfMeasure")
	}
	if b.QtyRaw.IsNegative() || b.QtyFinished.IsNegative() || b.QtyScrap.IsNegative() {
		return apperror.NewValidation("state quantities cannot be negative").
			WithDetail("batch_code", b.BatchCode)
	}
	for p, q := range b.WIP {
		if q.IsNegative() {
			return apperror.NewValidation("state quantities cannot be negative").
				WithDetail("batch_code", b.BatchCode).
				WithDetail("process", string(p))
		}
	}
	switch b.QualityStatus {
	case QualityGood, QualityPendingInspection, QualityDefective:
	default:
		return apperror.NewValidation("unknown quality status").
			WithDetail("quality_status", string(b.QualityStatus))
	}
	return nil
}
