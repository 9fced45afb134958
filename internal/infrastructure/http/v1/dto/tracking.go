package dto

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/tracking"
)

// --- Requests ---

// ReceiveBatchRequest creates a batch from a GRN line.
type ReceiveBatchRequest struct {
	GRNID           id.ID          `json:"grnId" binding:"required"`
	GRNNumber       string         `json:"grnNumber" binding:"required"`
	ItemID          id.ID          `json:"itemId" binding:"required"`
	Quantity        types.Quantity `json:"quantity" binding:"required"`
	RatePerUnit     types.Money    `json:"ratePerUnit"`
	ReceivedDate    *time.Time     `json:"receivedDate"`
	SupplierID      *id.ID         `json:"supplierId"`
	StorageLocation string         `json:"storageLocation"`
	SupplierBatchNo string         `json:"supplierBatchNo"`
}

// Line converts the request to the tracking input.
func (r ReceiveBatchRequest) Line() tracking.GRNLine {
	line := tracking.GRNLine{
		GRNID:            r.GRNID,
		GRNNumber:        r.GRNNumber,
		ItemID:           r.ItemID,
		QuantityReceived: r.Quantity,
		RatePerUnit:      r.RatePerUnit,
		SupplierID:       r.SupplierID,
		StorageLocation:  r.StorageLocation,
	}
	if r.ReceivedDate != nil {
		line.ReceivedDate = *r.ReceivedDate
	}
	return line
}

// IssueSelectionRequest is one batch pick of an issue.
type IssueSelectionRequest struct {
	BatchID  id.ID          `json:"batchId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
	Process  string         `json:"process"`
}

// IssueRequest issues raw material to a job work.
type IssueRequest struct {
	JobWorkNumber string                  `json:"jobWorkNumber" binding:"required"`
	VendorID      *id.ID                  `json:"vendorId"`
	Selections    []IssueSelectionRequest `json:"selections" binding:"required,min=1,dive"`
}

// SelectionInputs converts the request selections to tracking inputs.
func (r IssueRequest) SelectionInputs() []tracking.IssueSelection {
	selections := make([]tracking.IssueSelection, 0, len(r.Selections))
	for _, s := range r.Selections {
		selections = append(selections, tracking.IssueSelection{
			BatchID:  s.BatchID,
			Quantity: s.Quantity,
			Process:  batch.Process(s.Process),
		})
	}
	return selections
}

// ReturnLineRequest is one line of a job-work return.
type ReturnLineRequest struct {
	InputBatchID id.ID          `json:"inputBatchId" binding:"required"`
	OutputItemID *id.ID         `json:"outputItemId"`
	FinishedQty  types.Quantity `json:"finishedQty"`
	ScrapQty     types.Quantity `json:"scrapQty"`
	UnusedQty    types.Quantity `json:"unusedQty"`
	Process      string         `json:"process"`
}

// ReturnRequest records a job-work return.
type ReturnRequest struct {
	JobWorkNumber string              `json:"jobWorkNumber" binding:"required"`
	VendorID      *id.ID              `json:"vendorId"`
	Lines         []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// LineInputs converts the request lines to tracking inputs.
func (r ReturnRequest) LineInputs() []tracking.ReturnLine {
	lines := make([]tracking.ReturnLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, tracking.ReturnLine{
			InputBatchID: l.InputBatchID,
			OutputItemID: l.OutputItemID,
			FinishedQty:  l.FinishedQty,
			ScrapQty:     l.ScrapQty,
			UnusedQty:    l.UnusedQty,
			Process:      batch.Process(l.Process),
		})
	}
	return lines
}

// DispatchRequest ships finished quantity out of a batch.
type DispatchRequest struct {
	BatchID  id.ID          `json:"batchId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
	SalesRef string         `json:"salesRef"`
}

// ValidateSelectionRequest runs pre-flight checks on a selection.
type ValidateSelectionRequest struct {
	Selections []IssueSelectionRequest `json:"selections" binding:"required,min=1,dive"`
}

// SelectionInputs converts the request selections to tracking inputs.
func (r ValidateSelectionRequest) SelectionInputs() []tracking.IssueSelection {
	selections := make([]tracking.IssueSelection, 0, len(r.Selections))
	for _, s := range r.Selections {
		selections = append(selections, tracking.IssueSelection{
			BatchID:  s.BatchID,
			Quantity: s.Quantity,
			Process:  batch.Process(s.Process),
		})
	}
	return selections
}

// ValidateFIFORequest checks a selection against FIFO order.
type ValidateFIFORequest struct {
	ItemID   id.ID   `json:"itemId" binding:"required"`
	BatchIDs []id.ID `json:"batchIds" binding:"required,min=1"`
}

// --- Responses ---

// BatchResponse is the public view of a batch.
type BatchResponse struct {
	ID              string                            `json:"id"`
	ItemID          string                            `json:"itemId"`
	BatchCode       string                            `json:"batchCode"`
	QtyRaw          types.Quantity                    `json:"qtyRaw"`
	QtyWIP          map[batch.Process]types.Quantity  `json:"qtyWip"`
	QtyWIPTotal     types.Quantity                    `json:"qtyWipTotal"`
	QtyFinished     types.Quantity                    `json:"qtyFinished"`
	QtyScrap        types.Quantity                    `json:"qtyScrap"`
	TotalQuantity   types.Quantity                    `json:"totalQuantity"`
	Available       types.Quantity                    `json:"available"`
	UnitOfMeasure   string                            `json:"unitOfMeasure"`
	StorageLocation string                            `json:"storageLocation,omitempty"`
	MfgDate         *time.Time                        `json:"mfgDate,omitempty"`
	ExpiryDate      *time.Time                        `json:"expiryDate,omitempty"`
	SupplierLot     string                            `json:"supplierLot,omitempty"`
	UnitCost        types.Money                       `json:"unitCost"`
	QualityStatus   batch.QualityStatus               `json:"qualityStatus"`
	SourceType      batch.SourceType                  `json:"sourceType"`
	ParentBatchID   *string                           `json:"parentBatchId,omitempty"`
	CreatedAt       time.Time                         `json:"createdAt"`
	UpdatedAt       time.Time                         `json:"updatedAt"`
	Version         int                               `json:"version"`
}

// FromBatch creates BatchResponse from a batch.
func FromBatch(b *batch.Batch) BatchResponse {
	resp := BatchResponse{
		ID:              b.ID.String(),
		ItemID:          b.ItemID.String(),
		BatchCode:       b.BatchCode,
		QtyRaw:          b.QtyRaw,
		QtyWIP:          b.WIP,
		QtyWIPTotal:     b.WIPTotal(),
		QtyFinished:     b.QtyFinished,
		QtyScrap:        b.QtyScrap,
		TotalQuantity:   b.TotalQuantity(),
		Available:       b.AvailableQuantity(),
		UnitOfMeasure:   b.UnitOfMeasure,
		StorageLocation: b.StorageLocation,
		MfgDate:         b.MfgDate,
		ExpiryDate:      b.ExpiryDate,
		SupplierLot:     b.SupplierLot,
		UnitCost:        b.UnitCost,
		QualityStatus:   b.QualityStatus,
		SourceType:      b.SourceType,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Version:         b.Version,
	}
	if b.ParentBatchID != nil {
		parent := b.ParentBatchID.String()
		resp.ParentBatchID = &parent
	}
	return resp
}
