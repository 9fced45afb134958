// Package catalog_repo provides PostgreSQL read access to the item and
// vendor reference catalogs. The catalogs are maintained by the ERP core;
// this service only reads them.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalogs/item"
	"lotledger/internal/infrastructure/storage/postgres"
)

const itemsTable = "cat_items"

var itemColumns = []string{
	"id", "code", "name", "unit_of_measure",
	"shelf_life_days", "batch_required", "auto_batch_numbering",
	"default_batch_prefix", "minimum_stock",
}

// ItemRepo implements item.Reader.
type ItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewItemRepo creates a new item catalog reader.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ item.Reader = (*ItemRepo)(nil)

// GetByID retrieves an item by ID.
func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	return r.getOne(ctx, squirrel.Eq{"id": itemID}, itemID.String())
}

// GetByCode retrieves an item by its code.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *ItemRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*item.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var itm item.Item
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &itm, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item", key)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &itm, nil
}
