package tracking

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/report"
)

// MovementView is a ledger entry decorated for presentation.
type MovementView struct {
	ledger.Entry
	Description string `json:"description"`
	VendorName  string `json:"vendorName,omitempty"`
}

// BatchTraceability is the full lifecycle view of one batch: current
// counters, item context, the complete movement history, and the folded
// consumption report.
type BatchTraceability struct {
	Batch       *batch.Batch              `json:"batch"`
	ItemCode    string                    `json:"itemCode"`
	ItemName    string                    `json:"itemName"`
	Movements   []MovementView            `json:"movements"`
	Report      *report.ConsumptionReport `json:"report,omitempty"`
	Dispatched  types.Quantity            `json:"dispatched"`
	Remaining   types.Quantity            `json:"remaining"`
	IsActive    bool                      `json:"isActive"`
}

// GetBatchTraceability assembles the traceability view for a batch.
func (s *Service) GetBatchTraceability(ctx context.Context, batchID id.ID) (*BatchTraceability, error) {
	b, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	itm, err := s.items.GetByID(ctx, b.ItemID)
	if err != nil {
		return nil, err
	}

	history, err := s.ledger.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	rep, err := s.reports.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	// Dispatched is derived from the ledger rather than the report so the
	// view stays honest even when the fold lags behind the history.
	dispatched, err := s.ledger.DispatchedTotal(ctx, batchID)
	if err != nil {
		return nil, err
	}

	vendorNames, err := s.vendorNames(ctx, history)
	if err != nil {
		return nil, err
	}

	movements := make([]MovementView, 0, len(history))
	for i := range history {
		e := history[i]
		view := MovementView{
			Entry:       e,
			Description: e.Description(),
		}
		if e.VendorID != nil {
			view.VendorName = vendorNames[*e.VendorID]
		}
		movements = append(movements, view)
	}

	trace := &BatchTraceability{
		Batch:      b,
		ItemCode:   itm.Code,
		ItemName:   itm.Name,
		Movements:  movements,
		Report:     rep,
		Dispatched: types.NewQuantityFromInt64Scaled(dispatched),
	}
	if rep != nil {
		trace.Remaining = rep.RemainingQuantity()
		trace.IsActive = rep.IsActive()
	} else {
		trace.Remaining = b.TotalQuantity()
		trace.IsActive = b.TotalQuantity().IsPositive()
	}
	return trace, nil
}

func (s *Service) vendorNames(ctx context.Context, history []ledger.Entry) (map[id.ID]string, error) {
	seen := make(map[id.ID]bool)
	var ids []id.ID
	for i := range history {
		if v := history[i].VendorID; v != nil && !seen[*v] {
			seen[*v] = true
			ids = append(ids, *v)
		}
	}
	names := make(map[id.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	vendors, err := s.vendors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for vid, v := range vendors {
		names[vid] = v.Name
	}
	return names, nil
}

// Stock status labels for the item summary view.
const (
	StockStatusOut = "Out of Stock"
	StockStatusLow = "Low Stock"
	StockStatusIn  = "In Stock"
)

// StockSummary aggregates the live position of one item across its batches.
type StockSummary struct {
	ItemID       id.ID          `json:"itemId"`
	ItemCode     string         `json:"itemCode"`
	ItemName     string         `json:"itemName"`
	BatchCount   int            `json:"batchCount"`
	QtyRaw       types.Quantity `json:"qtyRaw"`
	QtyWIP       types.Quantity `json:"qtyWip"`
	QtyFinished  types.Quantity `json:"qtyFinished"`
	QtyScrap     types.Quantity `json:"qtyScrap"`
	Available    types.Quantity `json:"available"`
	MinimumStock types.Quantity `json:"minimumStock"`
	StockStatus  string         `json:"stockStatus"`
}

// ItemStockSummary aggregates batch counters for an item and classifies the
// position against the item's minimum stock threshold.
func (s *Service) ItemStockSummary(ctx context.Context, itemID id.ID) (*StockSummary, error) {
	itm, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	agg, err := s.batches.SummaryByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	summary := &StockSummary{
		ItemID:       itm.ID,
		ItemCode:     itm.Code,
		ItemName:     itm.Name,
		BatchCount:   agg.BatchCount,
		QtyRaw:       agg.QtyRaw,
		QtyWIP:       agg.QtyWIP,
		QtyFinished:  agg.QtyFinished,
		QtyScrap:     agg.QtyScrap,
		Available:    agg.Available(),
		MinimumStock: itm.MinimumStock,
	}

	switch {
	case !summary.Available.IsPositive():
		summary.StockStatus = StockStatusOut
	case summary.Available < itm.MinimumStock:
		summary.StockStatus = StockStatusLow
	default:
		summary.StockStatus = StockStatusIn
	}
	return summary, nil
}
