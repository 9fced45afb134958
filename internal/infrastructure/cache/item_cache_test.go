package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalogs/item"
)

type countingReader struct {
	items map[id.ID]*item.Item
	calls int
}

func (r *countingReader) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	r.calls++
	itm, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return itm, nil
}

func (r *countingReader) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	r.calls++
	for _, itm := range r.items {
		if itm.Code == code {
			return itm, nil
		}
	}
	return nil, apperror.NewNotFound("item", code)
}

func TestItemCache_ReadThrough(t *testing.T) {
	itm := &item.Item{ID: id.New(), Code: "steel-rod", Name: "Steel Rod"}
	source := &countingReader{items: map[id.ID]*item.Item{itm.ID: itm}}
	cache := NewItemCache(source, time.Minute)

	got, err := cache.GetByID(t.Context(), itm.ID)
	require.NoError(t, err)
	assert.Equal(t, itm, got)
	assert.Equal(t, 1, source.calls)

	// Second read is served from cache, by ID and by code.
	_, err = cache.GetByID(t.Context(), itm.ID)
	require.NoError(t, err)
	_, err = cache.GetByCode(t.Context(), "steel-rod")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestItemCache_MissesAreNotCached(t *testing.T) {
	source := &countingReader{items: map[id.ID]*item.Item{}}
	cache := NewItemCache(source, time.Minute)

	missing := id.New()
	_, err := cache.GetByID(t.Context(), missing)
	require.Error(t, err)
	_, err = cache.GetByID(t.Context(), missing)
	require.Error(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestItemCache_Invalidate(t *testing.T) {
	itm := &item.Item{ID: id.New(), Code: "steel-rod"}
	source := &countingReader{items: map[id.ID]*item.Item{itm.ID: itm}}
	cache := NewItemCache(source, time.Minute)

	_, err := cache.GetByID(t.Context(), itm.ID)
	require.NoError(t, err)

	cache.Invalidate(itm.ID)

	_, err = cache.GetByCode(t.Context(), "steel-rod")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
