package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/report"
	"lotledger/internal/domain/tracking"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves the read side: batches, movement history, consumption
// reports, and stock summaries.
type BatchHandler struct {
	*BaseHandler
	service *tracking.Service
	batches batch.Repository
	ledger  ledger.Repository
	reports report.Repository
}

// NewBatchHandler creates a new batch read handler.
func NewBatchHandler(
	base *BaseHandler,
	service *tracking.Service,
	batches batch.Repository,
	ledgerRepo ledger.Repository,
	reports report.Repository,
) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		service:     service,
		batches:     batches,
		ledger:      ledgerRepo,
		reports:     reports,
	}
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.batches.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Traceability handles GET /batches/:id/traceability
func (h *BatchHandler) Traceability(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	trace, err := h.service.GetBatchTraceability(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, trace)
}

// Movements handles GET /batches/:id/movements
func (h *BatchHandler) Movements(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.ledger.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: entries, TotalCount: len(entries)})
}

// Report handles GET /batches/:id/report
func (h *BatchHandler) Report(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rep, err := h.reports.GetByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if rep == nil {
		h.Error(c, apperror.NewNotFound("consumption report", batchID.String()))
		return
	}

	h.OK(c, rep)
}

// ItemBatches handles GET /items/:id/batches
func (h *BatchHandler) ItemBatches(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := batch.ListFilter{
		OnlyAvailable: c.Query("onlyAvailable") == "true",
		Limit:         h.ParseIntQuery(c, "limit", 50),
		Offset:        h.ParseIntQuery(c, "offset", 0),
	}
	if qs := c.Query("qualityStatus"); qs != "" {
		status := batch.QualityStatus(qs)
		filter.QualityStatus = &status
	}

	batches, err := h.batches.ListByItem(c.Request.Context(), itemID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	responses := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, dto.FromBatch(&batches[i]))
	}

	h.OK(c, dto.ListResponse{
		Items:      responses,
		TotalCount: len(responses),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// StockSummary handles GET /items/:id/stock-summary
func (h *BatchHandler) StockSummary(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.ItemStockSummary(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// ItemMovements handles GET /items/:id/movements
func (h *BatchHandler) ItemMovements(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter, ok := h.parseLedgerFilter(c)
	if !ok {
		return
	}

	entries, err := h.ledger.ListByItem(c.Request.Context(), itemID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      entries,
		TotalCount: len(entries),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// VendorMovements handles GET /vendors/:id/movements
func (h *BatchHandler) VendorMovements(c *gin.Context) {
	vendorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter, ok := h.parseLedgerFilter(c)
	if !ok {
		return
	}

	entries, err := h.ledger.ListByVendor(c.Request.Context(), vendorID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      entries,
		TotalCount: len(entries),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

func (h *BatchHandler) parseLedgerFilter(c *gin.Context) (ledger.Filter, bool) {
	filter := ledger.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if from := c.Query("fromDate"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
			return filter, false
		}
		filter.FromDate = &parsed
	}
	if to := c.Query("toDate"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
			return filter, false
		}
		filter.ToDate = &parsed
	}
	if rt := c.Query("refType"); rt != "" {
		refType := ledger.RefType(rt)
		filter.RefType = &refType
	}

	return filter, true
}
