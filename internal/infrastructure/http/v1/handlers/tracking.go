package handlers

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/tracking"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// TrackingHandler handles the batch lifecycle operations: receipt, issue,
// return and dispatch, plus the pre-flight validators.
type TrackingHandler struct {
	*BaseHandler
	service *tracking.Service
}

// NewTrackingHandler creates a new tracking handler.
func NewTrackingHandler(base *BaseHandler, service *tracking.Service) *TrackingHandler {
	return &TrackingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Receive handles POST /tracking/receipts
func (h *TrackingHandler) Receive(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.ReceiveFromPurchase(c.Request.Context(), req.Line(), req.SupplierBatchNo)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromBatch(b))
}

// Issue handles POST /tracking/job-works/:id/issue
func (h *TrackingHandler) Issue(c *gin.Context) {
	jobID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.IssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	job := tracking.JobWorkRef{
		ID:       jobID,
		Number:   req.JobWorkNumber,
		VendorID: req.VendorID,
	}

	result, err := h.service.IssueToJobWork(c.Request.Context(), job, req.SelectionInputs())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Return handles POST /tracking/job-works/:id/return
func (h *TrackingHandler) Return(c *gin.Context) {
	jobID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	job := tracking.JobWorkRef{
		ID:       jobID,
		Number:   req.JobWorkNumber,
		VendorID: req.VendorID,
	}

	result, err := h.service.ReceiveFromJobWork(c.Request.Context(), job, req.LineInputs())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Dispatch handles POST /tracking/dispatches
func (h *TrackingHandler) Dispatch(c *gin.Context) {
	var req dto.DispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Dispatch(c.Request.Context(), req.BatchID, req.Quantity, req.SalesRef)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// ValidateSelection handles POST /tracking/validate/selection
func (h *TrackingHandler) ValidateSelection(c *gin.Context) {
	var req dto.ValidateSelectionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Validator().ValidateSelection(c.Request.Context(), req.SelectionInputs())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// ValidateFIFO handles POST /tracking/validate/fifo
func (h *TrackingHandler) ValidateFIFO(c *gin.Context) {
	var req dto.ValidateFIFORequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Validator().ValidateFIFO(c.Request.Context(), req.ItemID, req.BatchIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
