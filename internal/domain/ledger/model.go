// Package ledger provides the batch movement ledger: an append-only record
// of every quantity transition between states and documents. Entries are
// immutable - they are written once by the tracking service and never
// updated or deleted.
package ledger

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
)

// RefType names the document class that caused a movement.
type RefType string

const (
	RefGRN        RefType = "GRN"
	RefJobWork    RefType = "JobWork"
	RefProduction RefType = "Production"
	RefDispatch   RefType = "Dispatch"
	RefScrap      RefType = "Scrap"
	RefAdjustment RefType = "Adjustment"
)

// Entry is one immutable movement record. The quantity matches a batch
// counter mutation performed in the same transaction.
type Entry struct {
	ID id.ID `db:"id" json:"id"`

	// Reference to the document that caused the movement
	RefType   RefType `db:"ref_type" json:"refType"`
	RefID     *id.ID  `db:"ref_id" json:"refId,omitempty"`
	RefNumber string  `db:"ref_number" json:"refNumber"`

	// Subject
	BatchID id.ID `db:"batch_id" json:"batchId"`
	ItemID  id.ID `db:"item_id" json:"itemId"`

	// Transition. FromState empty means external/new intake.
	FromState     batch.State    `db:"from_state" json:"fromState,omitempty"`
	ToState       batch.State    `db:"to_state" json:"toState"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	UnitOfMeasure string         `db:"unit_of_measure" json:"unitOfMeasure"`

	// Context
	ProcessName     batch.Process       `db:"process_name" json:"processName,omitempty"`
	VendorID        *id.ID              `db:"vendor_id" json:"vendorId,omitempty"`
	StorageLocation string              `db:"storage_location" json:"storageLocation,omitempty"`
	CostPerUnit     types.Money         `db:"cost_per_unit" json:"costPerUnit"`
	TotalCost       types.Money         `db:"total_cost" json:"totalCost"`
	QualityStatus   batch.QualityStatus `db:"quality_status" json:"qualityStatus"`
	MovementDate    time.Time           `db:"movement_date" json:"movementDate"`
	Notes           string              `db:"notes" json:"notes,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates a movement entry with generated ID and timestamps.
// Derived fields (total cost) are filled from the arguments.
func NewEntry(refType RefType, refNumber string, b *batch.Batch, from, to batch.State, q types.Quantity) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:              id.New(),
		RefType:         refType,
		RefNumber:       refNumber,
		BatchID:         b.ID,
		ItemID:          b.ItemID,
		FromState:       from,
		ToState:         to,
		Quantity:        q,
		UnitOfMeasure:   b.UnitOfMeasure,
		StorageLocation: b.StorageLocation,
		CostPerUnit:     b.UnitCost,
		TotalCost:       b.UnitCost.Mul(q.Decimal()),
		QualityStatus:   b.QualityStatus,
		MovementDate:    now,
		CreatedAt:       now,
	}
}

// Description renders a short human-readable transition, e.g.
// "Raw -> WIP Cutting" or "External -> Raw".
func (e *Entry) Description() string {
	from := "External"
	if e.FromState != "" {
		from = stateLabel(e.FromState)
	}
	return from + " -> " + stateLabel(e.ToState)
}

func stateLabel(s batch.State) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '_' {
			out = append(out, ' ')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
