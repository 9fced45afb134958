package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

func TestGetBatchTraceability(t *testing.T) {
	f := newFixture(t)
	itm := f.addItem("steel-rod", 0)
	b := f.receive(t, itm, 100)

	job := JobWorkRef{ID: id.New(), Number: "JW-100"}
	_, err := f.service.IssueToJobWork(t.Context(), job, []IssueSelection{
		{BatchID: b.ID, Quantity: qty(40), Process: "cutting"},
	})
	require.NoError(t, err)

	trace, err := f.service.GetBatchTraceability(t.Context(), b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, trace.Batch.ID)
	assert.Equal(t, "steel-rod", trace.ItemCode)
	require.Len(t, trace.Movements, 2)
	assert.Equal(t, "External -> Raw", trace.Movements[0].Description)
	assert.Equal(t, "Raw -> WIP Cutting", trace.Movements[1].Description)

	require.NotNil(t, trace.Report)
	assert.True(t, trace.Dispatched.IsZero())
	assert.Equal(t, qty(60), trace.Remaining)
	assert.True(t, trace.IsActive)
}

func TestGetBatchTraceability_DispatchedFromLedger(t *testing.T) {
	f := newFixture(t)
	itm := f.addItem("bracket", 0)
	b := f.receive(t, itm, 50)

	job := JobWorkRef{ID: id.New(), Number: "JW-102"}
	_, err := f.service.IssueToJobWork(t.Context(), job, []IssueSelection{
		{BatchID: b.ID, Quantity: qty(50), Process: "assembly"},
	})
	require.NoError(t, err)
	_, err = f.service.ReceiveFromJobWork(t.Context(), job, []ReturnLine{
		{InputBatchID: b.ID, FinishedQty: qty(50), Process: "assembly"},
	})
	require.NoError(t, err)

	_, err = f.service.Dispatch(t.Context(), b.ID, qty(30), "SO-310")
	require.NoError(t, err)
	_, err = f.service.Dispatch(t.Context(), b.ID, qty(20), "SO-311")
	require.NoError(t, err)

	trace, err := f.service.GetBatchTraceability(t.Context(), b.ID)
	require.NoError(t, err)

	// Dispatched comes from summing the ledger, not the report fold, and
	// the two must agree.
	assert.Equal(t, qty(50), trace.Dispatched)
	require.NotNil(t, trace.Report)
	assert.Equal(t, trace.Report.TotalDispatched, trace.Dispatched)
	assert.True(t, trace.Remaining.IsZero())
	assert.False(t, trace.IsActive)
}

func TestGetBatchTraceability_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetBatchTraceability(t.Context(), id.New())
	require.Error(t, err)
}

func TestItemStockSummary(t *testing.T) {
	f := newFixture(t)
	itm := f.addItem("steel-rod", 0)
	itm.MinimumStock = qty(20)

	b1 := f.receive(t, itm, 30)
	f.receive(t, itm, 15)

	job := JobWorkRef{ID: id.New(), Number: "JW-101"}
	_, err := f.service.IssueToJobWork(t.Context(), job, []IssueSelection{
		{BatchID: b1.ID, Quantity: qty(10), Process: "cutting"},
	})
	require.NoError(t, err)

	summary, err := f.service.ItemStockSummary(t.Context(), itm.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.BatchCount)
	assert.Equal(t, qty(35), summary.QtyRaw)
	assert.Equal(t, qty(10), summary.QtyWIP)
	assert.Equal(t, qty(35), summary.Available)
	assert.Equal(t, StockStatusIn, summary.StockStatus)
}

func TestItemStockSummary_Thresholds(t *testing.T) {
	f := newFixture(t)
	itm := f.addItem("fastener", 0)
	itm.MinimumStock = qty(100)

	summary, err := f.service.ItemStockSummary(t.Context(), itm.ID)
	require.NoError(t, err)
	assert.Equal(t, StockStatusOut, summary.StockStatus)
	assert.True(t, summary.Available.IsZero())

	f.receive(t, itm, 50)
	summary, err = f.service.ItemStockSummary(t.Context(), itm.ID)
	require.NoError(t, err)
	assert.Equal(t, StockStatusLow, summary.StockStatus)
	assert.Equal(t, types.NewQuantityFromFloat64(50), summary.Available)
}
