// Package report provides the per-batch consumption report: running totals
// folded incrementally from ledger entries, never recomputed from scratch in
// the hot path. Replaying a batch's ordered ledger through ApplyMovement
// from a zero report must reproduce the stored totals exactly.
package report

import (
	"strings"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
)

// ConsumptionReport aggregates the lifetime of one batch.
type ConsumptionReport struct {
	ID        id.ID  `db:"id" json:"id"`
	BatchID   id.ID  `db:"batch_id" json:"batchId"`
	ItemID    id.ID  `db:"item_id" json:"itemId"`
	BatchCode string `db:"batch_code" json:"batchCode"`

	// Running totals
	TotalReceived   types.Quantity `db:"total_received" json:"totalReceived"`
	TotalIssued     types.Quantity `db:"total_issued" json:"totalIssued"`
	TotalFinished   types.Quantity `db:"total_finished" json:"totalFinished"`
	TotalScrap      types.Quantity `db:"total_scrap" json:"totalScrap"`
	TotalReturned   types.Quantity `db:"total_returned" json:"totalReturned"`
	TotalDispatched types.Quantity `db:"total_dispatched" json:"totalDispatched"`

	// Per-process issued breakdown (open keyed map, stored as JSONB)
	ProcessIssued map[batch.Process]types.Quantity `db:"process_issued" json:"processIssued"`

	// Efficiency metrics, recomputed on every fold
	YieldPct       float64 `db:"yield_pct" json:"yieldPct"`
	ScrapPct       float64 `db:"scrap_pct" json:"scrapPct"`
	UtilizationPct float64 `db:"utilization_pct" json:"utilizationPct"`

	FirstReceived *time.Time `db:"first_received" json:"firstReceived,omitempty"`
	LastMovement  *time.Time `db:"last_movement" json:"lastMovement,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewForBatch creates a zero-valued report for a batch.
func NewForBatch(b *batch.Batch) *ConsumptionReport {
	return &ConsumptionReport{
		ID:            id.New(),
		BatchID:       b.ID,
		ItemID:        b.ItemID,
		BatchCode:     b.BatchCode,
		ProcessIssued: make(map[batch.Process]types.Quantity),
		UpdatedAt:     time.Now().UTC(),
	}
}

// RemainingQuantity is what has not yet been consumed or shipped.
func (r *ConsumptionReport) RemainingQuantity() types.Quantity {
	remaining := r.TotalReceived - r.TotalIssued - r.TotalDispatched
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsActive reports whether the batch still has unconsumed quantity.
func (r *ConsumptionReport) IsActive() bool {
	return r.RemainingQuantity().IsPositive()
}

// ApplyMovement folds one ledger entry into the running totals. The fold is
// referentially transparent: given the same report state and entry it always
// produces the same result, so an ordered replay of the ledger reproduces
// the stored report.
func (r *ConsumptionReport) ApplyMovement(e *ledger.Entry) {
	switch e.RefType {
	case ledger.RefGRN:
		r.TotalReceived += e.Quantity
		if r.FirstReceived == nil {
			d := e.MovementDate
			r.FirstReceived = &d
		}

	case ledger.RefJobWork, ledger.RefProduction:
		switch {
		case e.ToState.IsWIP():
			r.TotalIssued += e.Quantity
			r.bucketProcess(e.ToState, e.Quantity)
		case e.ToState == batch.StateFinished:
			r.TotalFinished += e.Quantity
		case e.ToState == batch.StateScrap:
			r.TotalScrap += e.Quantity
		case e.ToState == batch.StateRaw && e.FromState != "":
			r.TotalReturned += e.Quantity
		}

	case ledger.RefDispatch:
		r.TotalDispatched += e.Quantity
	}

	r.recalculateMetrics()
	d := e.MovementDate
	r.LastMovement = &d
	r.UpdatedAt = time.Now().UTC()
}

// bucketProcess credits the named process counter whose name appears in the
// WIP state. Unknown processes are counted in TotalIssued but not bucketed;
// extend KnownProcesses to bucket a new process.
func (r *ConsumptionReport) bucketProcess(to batch.State, q types.Quantity) {
	state := strings.ToLower(string(to))
	for _, p := range batch.KnownProcesses {
		if strings.Contains(state, string(p)) {
			if r.ProcessIssued == nil {
				r.ProcessIssued = make(map[batch.Process]types.Quantity)
			}
			r.ProcessIssued[p] += q
			return
		}
	}
}

func (r *ConsumptionReport) recalculateMetrics() {
	if r.TotalIssued.IsPositive() {
		issued := r.TotalIssued.Float64()
		r.YieldPct = r.TotalFinished.Float64() / issued * 100
		r.ScrapPct = r.TotalScrap.Float64() / issued * 100
	}
	if r.TotalReceived.IsPositive() {
		r.UtilizationPct = r.TotalIssued.Float64() / r.TotalReceived.Float64() * 100
	}
}

// Replay folds an ordered ledger history into a fresh report for the batch.
// Used by tests and consistency checks to verify the stored report.
func Replay(b *batch.Batch, history []ledger.Entry) *ConsumptionReport {
	r := NewForBatch(b)
	for i := range history {
		r.ApplyMovement(&history[i])
	}
	return r
}
