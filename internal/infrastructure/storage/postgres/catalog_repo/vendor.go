package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalogs/vendor"
	"lotledger/internal/infrastructure/storage/postgres"
)

const vendorsTable = "cat_vendors"

var vendorColumns = []string{"id", "code", "name"}

// VendorRepo implements vendor.Reader.
type VendorRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewVendorRepo creates a new vendor catalog reader.
func NewVendorRepo(txManager *postgres.TxManager) *VendorRepo {
	return &VendorRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ vendor.Reader = (*VendorRepo)(nil)

// GetByID retrieves a vendor by ID.
func (r *VendorRepo) GetByID(ctx context.Context, vendorID id.ID) (*vendor.Vendor, error) {
	q := r.builder.Select(vendorColumns...).
		From(vendorsTable).
		Where(squirrel.Eq{"id": vendorID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v vendor.Vendor
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("vendor", vendorID.String())
		}
		return nil, fmt.Errorf("get vendor: %w", err)
	}

	return &v, nil
}

// GetByIDs returns the vendors present in ids, keyed by id.
func (r *VendorRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*vendor.Vendor, error) {
	result := make(map[id.ID]*vendor.Vendor, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	q := r.builder.Select(vendorColumns...).
		From(vendorsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var vendors []vendor.Vendor
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &vendors, sql, args...); err != nil {
		return nil, fmt.Errorf("select vendors: %w", err)
	}

	for i := range vendors {
		v := vendors[i]
		result[v.ID] = &v
	}

	return result, nil
}
