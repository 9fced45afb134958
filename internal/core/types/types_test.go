package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	assert.Equal(t, "100.0000", NewQuantityFromFloat64(100).String())
	assert.Equal(t, "0.0001", NewQuantityFromInt64Scaled(1).String())
	assert.Equal(t, "-2.5000", NewQuantityFromFloat64(-2.5).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantity_JSONNumber(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	data, err := json.Marshal(payload{Qty: NewQuantityFromFloat64(12.5)})
	require.NoError(t, err)
	assert.Equal(t, `{"qty":12.5000}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty":12.5}`), &out))
	assert.Equal(t, NewQuantityFromFloat64(12.5), out.Qty)

	// String form and nulls are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"3.25"}`), &out))
	assert.Equal(t, NewQuantityFromFloat64(3.25), out.Qty)
	require.NoError(t, json.Unmarshal([]byte(`{"qty":null}`), &out))
	assert.True(t, out.Qty.IsZero())
}

func TestQuantity_ParseTruncatesExtraDigits(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`1.23456789`), &q))
	assert.Equal(t, NewQuantityFromInt64Scaled(12345), q)
}

func TestQuantity_Decimal(t *testing.T) {
	q := NewQuantityFromFloat64(7.25)
	assert.Equal(t, "7.25", q.Decimal().String())

	cost := NewMoney(50)
	assert.Equal(t, "362.5", cost.Mul(q.Decimal()).String())
}
