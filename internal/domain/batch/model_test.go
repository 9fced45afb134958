package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func newTestBatch(raw float64) *Batch {
	b := New(id.New(), "STL-2608-001", "kg")
	b.QtyRaw = qty(raw)
	return b
}

func TestMoveQuantity_ExternalCredit(t *testing.T) {
	b := newTestBatch(0)

	err := b.MoveQuantity("", StateRaw, qty(100))
	require.NoError(t, err)

	assert.Equal(t, qty(100), b.QtyRaw)
	assert.Equal(t, qty(100), b.TotalQuantity())
}

func TestMoveQuantity_PreservesTotal(t *testing.T) {
	b := newTestBatch(100)
	before := b.TotalQuantity()

	require.NoError(t, b.MoveQuantity(StateRaw, WIPState("cutting"), qty(40)))
	assert.Equal(t, before, b.TotalQuantity())
	assert.Equal(t, qty(60), b.QtyRaw)
	assert.Equal(t, qty(40), b.WIPQty("cutting"))

	require.NoError(t, b.MoveQuantity(WIPState("cutting"), StateFinished, qty(35)))
	require.NoError(t, b.MoveQuantity(WIPState("cutting"), StateScrap, qty(3)))
	require.NoError(t, b.MoveQuantity(WIPState("cutting"), StateRaw, qty(2)))

	assert.Equal(t, before, b.TotalQuantity())
	assert.Equal(t, qty(62), b.QtyRaw)
	assert.True(t, b.WIPQty("cutting").IsZero())
	assert.Equal(t, qty(35), b.QtyFinished)
	assert.Equal(t, qty(3), b.QtyScrap)
}

func TestMoveQuantity_DispatchLeavesBatch(t *testing.T) {
	b := newTestBatch(0)
	b.QtyFinished = qty(35)

	require.NoError(t, b.MoveQuantity(StateFinished, StateDispatched, qty(20)))

	assert.Equal(t, qty(15), b.QtyFinished)
	assert.Equal(t, qty(15), b.TotalQuantity())
}

func TestMoveQuantity_InsufficientRaw(t *testing.T) {
	b := newTestBatch(10)

	err := b.MoveQuantity(StateRaw, WIPState("welding"), qty(11))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientQuantity, appErr.Code)

	// Failed move must not mutate anything.
	assert.Equal(t, qty(10), b.QtyRaw)
	assert.True(t, b.WIPTotal().IsZero())
}

func TestMoveQuantity_InsufficientFinished(t *testing.T) {
	b := newTestBatch(0)
	b.QtyFinished = qty(5)

	err := b.MoveQuantity(StateFinished, StateDispatched, qty(6))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientFinished, appErr.Code)
	assert.Equal(t, qty(5), b.QtyFinished)
}

func TestMoveQuantity_RejectsNonPositive(t *testing.T) {
	b := newTestBatch(10)

	assert.Error(t, b.MoveQuantity(StateRaw, StateFinished, qty(0)))
	assert.Error(t, b.MoveQuantity(StateRaw, StateFinished, qty(-1)))
	assert.Equal(t, qty(10), b.QtyRaw)
}

func TestMoveQuantity_FractionalQuantities(t *testing.T) {
	b := newTestBatch(10.5)

	require.NoError(t, b.MoveQuantity(StateRaw, WIPState("zinc"), qty(0.0001)))
	assert.Equal(t, types.NewQuantityFromInt64Scaled(104999), b.QtyRaw)
	assert.Equal(t, types.NewQuantityFromInt64Scaled(1), b.WIPQty("zinc"))
}

func TestIsExpired_DateOnlyComparison(t *testing.T) {
	expiry := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	b := newTestBatch(10)
	b.ExpiryDate = &expiry

	// Still valid on the expiry day itself, whatever the time of day.
	assert.False(t, b.IsExpired(time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)))
	assert.True(t, b.IsExpired(time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC)))
}

func TestExpiresWithin(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 0, 30)

	b := newTestBatch(10)
	assert.False(t, b.ExpiresWithin(now, 7), "no expiry date")

	b.ExpiryDate = &soon
	assert.True(t, b.ExpiresWithin(now, 7))

	b.ExpiryDate = &later
	assert.False(t, b.ExpiresWithin(now, 7))
}

func TestWIPState_RoundTrip(t *testing.T) {
	tests := []struct {
		process Process
		state   State
	}{
		{"cutting", "WIP_Cutting"},
		{"zinc", "WIP_Zinc"},
		{"heat treatment", "WIP_Heat treatment"},
	}

	for _, tt := range tests {
		s := WIPState(tt.process)
		assert.Equal(t, tt.state, s)
		assert.True(t, s.IsWIP())

		p, ok := s.Process()
		assert.True(t, ok)
		assert.Equal(t, tt.process, p)
	}

	_, ok := StateRaw.Process()
	assert.False(t, ok)
	assert.False(t, StateFinished.IsWIP())
}

func TestValidate(t *testing.T) {
	ctx := t.Context()

	b := newTestBatch(10)
	require.NoError(t, b.Validate(ctx))

	bad := newTestBatch(10)
	bad.BatchCode = ""
	assert.Error(t, bad.Validate(ctx))

	bad = newTestBatch(-1)
	assert.Error(t, bad.Validate(ctx))

	bad = newTestBatch(10)
	bad.WIP["cutting"] = qty(-5)
	assert.Error(t, bad.Validate(ctx))

	bad = newTestBatch(10)
	bad.QualityStatus = "unknown"
	assert.Error(t, bad.Validate(ctx))
}
