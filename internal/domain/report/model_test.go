package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func testBatch() *batch.Batch {
	return batch.New(id.New(), "STL-2608-001", "kg")
}

func entry(b *batch.Batch, refType ledger.RefType, from, to batch.State, q types.Quantity) *ledger.Entry {
	return ledger.NewEntry(refType, "DOC-001", b, from, to, q)
}

func TestApplyMovement_Receipt(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)

	r.ApplyMovement(entry(b, ledger.RefGRN, "", batch.StateRaw, qty(100)))

	assert.Equal(t, qty(100), r.TotalReceived)
	require.NotNil(t, r.FirstReceived)
	require.NotNil(t, r.LastMovement)

	// First received is pinned by the first receipt.
	first := *r.FirstReceived
	r.ApplyMovement(entry(b, ledger.RefGRN, "", batch.StateRaw, qty(50)))
	assert.Equal(t, qty(150), r.TotalReceived)
	assert.Equal(t, first, *r.FirstReceived)
}

func TestApplyMovement_IssueBucketsProcess(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)

	r.ApplyMovement(entry(b, ledger.RefGRN, "", batch.StateRaw, qty(100)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.StateRaw, batch.WIPState("cutting"), qty(30)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.StateRaw, batch.WIPState("zinc"), qty(10)))

	assert.Equal(t, qty(40), r.TotalIssued)
	assert.Equal(t, qty(30), r.ProcessIssued["cutting"])
	assert.Equal(t, qty(10), r.ProcessIssued["zinc"])
}

func TestApplyMovement_UnknownProcessStillCounted(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)

	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.StateRaw, batch.WIPState("lapping"), qty(5)))

	assert.Equal(t, qty(5), r.TotalIssued)
	assert.Empty(t, r.ProcessIssued)
}

func TestApplyMovement_Metrics(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)

	r.ApplyMovement(entry(b, ledger.RefGRN, "", batch.StateRaw, qty(100)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.StateRaw, batch.WIPState("cutting"), qty(40)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateFinished, qty(35)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateScrap, qty(3)))
	r.ApplyMovement(entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateRaw, qty(2)))

	assert.Equal(t, qty(100), r.TotalReceived)
	assert.Equal(t, qty(40), r.TotalIssued)
	assert.Equal(t, qty(35), r.TotalFinished)
	assert.Equal(t, qty(3), r.TotalScrap)
	assert.Equal(t, qty(2), r.TotalReturned)

	assert.InDelta(t, 87.5, r.YieldPct, 0.001)
	assert.InDelta(t, 7.5, r.ScrapPct, 0.001)
	assert.InDelta(t, 40.0, r.UtilizationPct, 0.001)
}

func TestApplyMovement_MetricsGuardZeroDenominators(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)

	// A dispatch with nothing received or issued must not divide by zero.
	r.ApplyMovement(entry(b, ledger.RefDispatch, batch.StateFinished, batch.StateDispatched, qty(5)))

	assert.Equal(t, qty(5), r.TotalDispatched)
	assert.Zero(t, r.YieldPct)
	assert.Zero(t, r.ScrapPct)
	assert.Zero(t, r.UtilizationPct)
}

func TestRemainingQuantity(t *testing.T) {
	b := testBatch()
	r := NewForBatch(b)
	r.TotalReceived = qty(100)
	r.TotalIssued = qty(40)
	r.TotalDispatched = qty(20)

	assert.Equal(t, qty(40), r.RemainingQuantity())
	assert.True(t, r.IsActive())

	r.TotalDispatched = qty(70)
	assert.True(t, r.RemainingQuantity().IsZero(), "never negative")
	assert.False(t, r.IsActive())
}

func TestReplay_ReproducesIncrementalFold(t *testing.T) {
	b := testBatch()

	history := []ledger.Entry{
		*entry(b, ledger.RefGRN, "", batch.StateRaw, qty(100)),
		*entry(b, ledger.RefJobWork, batch.StateRaw, batch.WIPState("cutting"), qty(40)),
		*entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateFinished, qty(35)),
		*entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateScrap, qty(3)),
		*entry(b, ledger.RefJobWork, batch.WIPState("cutting"), batch.StateRaw, qty(2)),
		*entry(b, ledger.RefDispatch, batch.StateFinished, batch.StateDispatched, qty(20)),
	}

	incremental := NewForBatch(b)
	for i := range history {
		incremental.ApplyMovement(&history[i])
	}

	replayed := Replay(b, history)

	assert.Equal(t, incremental.TotalReceived, replayed.TotalReceived)
	assert.Equal(t, incremental.TotalIssued, replayed.TotalIssued)
	assert.Equal(t, incremental.TotalFinished, replayed.TotalFinished)
	assert.Equal(t, incremental.TotalScrap, replayed.TotalScrap)
	assert.Equal(t, incremental.TotalReturned, replayed.TotalReturned)
	assert.Equal(t, incremental.TotalDispatched, replayed.TotalDispatched)
	assert.Equal(t, incremental.ProcessIssued, replayed.ProcessIssued)
	assert.Equal(t, incremental.YieldPct, replayed.YieldPct)
	assert.Equal(t, incremental.ScrapPct, replayed.ScrapPct)
	assert.Equal(t, incremental.UtilizationPct, replayed.UtilizationPct)
}
