package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
)

func rawBatch(itemID id.ID, code string, raw float64, mfg time.Time) *batch.Batch {
	b := batch.New(itemID, code, "kg")
	b.QtyRaw = qty(raw)
	b.QualityStatus = batch.QualityGood
	b.MfgDate = &mfg
	return b
}

func TestCheckSelection_AccumulatesAcrossDuplicates(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	b := rawBatch(id.New(), "STL-2608-001", 10, now)
	loaded := map[id.ID]*batch.Batch{b.ID: b}

	// Each line fits alone; together they oversell the batch.
	res := CheckSelection([]IssueSelection{
		{BatchID: b.ID, Quantity: qty(6)},
		{BatchID: b.ID, Quantity: qty(6)},
	}, loaded, now)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "insufficient quantity in batch STL-2608-001")
}

func TestCheckSelection_CollectsAllProblems(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	itemID := id.New()

	short := rawBatch(itemID, "B-SHORT", 5, now)
	defective := rawBatch(itemID, "B-DEF", 50, now)
	defective.QualityStatus = batch.QualityDefective
	expired := rawBatch(itemID, "B-EXP", 50, now.AddDate(0, -6, 0))
	past := now.AddDate(0, 0, -1)
	expired.ExpiryDate = &past

	loaded := map[id.ID]*batch.Batch{
		short.ID:     short,
		defective.ID: defective,
		expired.ID:   expired,
	}
	missing := id.New()

	res := CheckSelection([]IssueSelection{
		{BatchID: short.ID, Quantity: qty(10)},
		{BatchID: defective.ID, Quantity: qty(10)},
		{BatchID: expired.ID, Quantity: qty(10)},
		{BatchID: missing, Quantity: qty(10)},
		{BatchID: id.Nil(), Quantity: qty(10)},
		{BatchID: short.ID, Quantity: qty(0)},
	}, loaded, now)

	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 6)
	// Lines that identify a loaded batch still count toward the total.
	assert.Equal(t, qty(30), res.TotalQuantity)
}

func TestCheckSelection_Warnings(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	itemID := id.New()

	pending := rawBatch(itemID, "B-PEND", 50, now)
	pending.QualityStatus = batch.QualityPendingInspection

	expiring := rawBatch(itemID, "B-SOON", 50, now)
	soon := now.AddDate(0, 0, 3)
	expiring.ExpiryDate = &soon

	loaded := map[id.ID]*batch.Batch{pending.ID: pending, expiring.ID: expiring}

	res := CheckSelection([]IssueSelection{
		{BatchID: pending.ID, Quantity: qty(10)},
		{BatchID: expiring.ID, Quantity: qty(10)},
	}, loaded, now)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "pending inspection")
	assert.Contains(t, res.Warnings[1], "expires soon")
	assert.Equal(t, qty(20), res.TotalQuantity)
}

func TestValidateFIFO_OlderBatchSkipped(t *testing.T) {
	repo := newFakeBatchRepo()
	itemID := id.New()

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	older := rawBatch(itemID, "B-OLD", 10, day)
	newer := rawBatch(itemID, "B-NEW", 10, day.AddDate(0, 0, 10))
	repo.put(older)
	repo.put(newer)

	v := NewValidator(repo)
	res, err := v.ValidateFIFO(t.Context(), itemID, []id.ID{newer.ID})
	require.NoError(t, err)

	assert.False(t, res.Compliant)
	assert.Contains(t, res.Message, "FIFO violation")
	assert.Contains(t, res.Message, "B-OLD")
	require.NotNil(t, res.SuggestedBatch)
	assert.Equal(t, older.ID, res.SuggestedBatch.BatchID)
	assert.Equal(t, qty(10), res.SuggestedBatch.AvailableQty)
}

func TestValidateFIFO_OldestSelectedIsCompliant(t *testing.T) {
	repo := newFakeBatchRepo()
	itemID := id.New()

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	older := rawBatch(itemID, "B-OLD", 10, day)
	newer := rawBatch(itemID, "B-NEW", 10, day.AddDate(0, 0, 10))
	repo.put(older)
	repo.put(newer)

	v := NewValidator(repo)

	// Taking only the oldest batch is compliant: newer stock may stay.
	res, err := v.ValidateFIFO(t.Context(), itemID, []id.ID{older.ID})
	require.NoError(t, err)
	assert.True(t, res.Compliant)

	// Taking both is compliant too.
	res, err = v.ValidateFIFO(t.Context(), itemID, []id.ID{older.ID, newer.ID})
	require.NoError(t, err)
	assert.True(t, res.Compliant)
}

func TestValidateFIFO_DrainedOlderBatchIgnored(t *testing.T) {
	repo := newFakeBatchRepo()
	itemID := id.New()

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	drained := rawBatch(itemID, "B-DRAINED", 0, day)
	newer := rawBatch(itemID, "B-NEW", 10, day.AddDate(0, 0, 10))
	repo.put(drained)
	repo.put(newer)

	v := NewValidator(repo)
	res, err := v.ValidateFIFO(t.Context(), itemID, []id.ID{newer.ID})
	require.NoError(t, err)
	assert.True(t, res.Compliant)
}

func TestValidateFIFO_NoAvailableBatches(t *testing.T) {
	repo := newFakeBatchRepo()
	v := NewValidator(repo)

	res, err := v.ValidateFIFO(t.Context(), id.New(), []id.ID{id.New()})
	require.NoError(t, err)
	assert.True(t, res.Compliant)
}

func TestValidateSelection_LoadsBatches(t *testing.T) {
	repo := newFakeBatchRepo()
	itemID := id.New()
	b := rawBatch(itemID, "B-1", 10, time.Now().UTC())
	repo.put(b)

	v := NewValidator(repo)
	res, err := v.ValidateSelection(t.Context(), []IssueSelection{
		{BatchID: b.ID, Quantity: qty(5)},
		{BatchID: id.New(), Quantity: qty(5)},
	})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not found")
}
