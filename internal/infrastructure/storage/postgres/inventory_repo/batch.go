// Package inventory_repo provides PostgreSQL implementations for the batch,
// ledger and consumption report repositories. TxManager is injected; repos
// run on the transaction from context when one is active.
package inventory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
	"lotledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "inv_batches"

// wipTotalExpr sums the JSONB per-process quantities back to the scaled
// integer representation the BIGINT quantity columns use.
const wipTotalExpr = "CAST(COALESCE((SELECT SUM(value::numeric) FROM jsonb_each_text(qty_wip)), 0) * 10000 AS BIGINT)"

var batchColumns = []string{
	"id", "item_id", "batch_code",
	"qty_raw", "qty_wip", "qty_finished", "qty_scrap",
	"unit_of_measure", "storage_location", "mfg_date", "expiry_date",
	"supplier_lot", "unit_cost", "quality_status",
	"source_type", "source_ref_id", "parent_batch_id",
	"created_by", "created_at", "updated_at", "version",
}

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ batch.Repository = (*BatchRepo)(nil)

// Create inserts a new batch.
func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(
			b.ID, b.ItemID, b.BatchCode,
			b.QtyRaw, b.WIP, b.QtyFinished, b.QtyScrap,
			b.UnitOfMeasure, b.StorageLocation, b.MfgDate, b.ExpiryDate,
			b.SupplierLot, b.UnitCost, b.QualityStatus,
			b.SourceType, b.SourceRefID, b.ParentBatchID,
			b.CreatedBy, b.CreatedAt, b.UpdatedAt, b.Version,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("batch", "batch_code", b.BatchCode).WithCause(err)
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// GetByID retrieves a batch by ID.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getByID(ctx, batchID, false)
}

// GetByIDForUpdate retrieves a batch with a row lock.
func (r *BatchRepo) GetByIDForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getByID(ctx, batchID, true)
}

func (r *BatchRepo) getByID(ctx context.Context, batchID id.ID, forUpdate bool) (*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batch.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewBatchNotFound(batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return &b, nil
}

// Update persists counter and metadata changes with an optimistic version
// check. Mutating paths load FOR UPDATE first, so a failed check here means
// an update bypassed the lock.
func (r *BatchRepo) Update(ctx context.Context, b *batch.Batch) error {
	q := r.builder.Update(batchesTable).
		Set("qty_raw", b.QtyRaw).
		Set("qty_wip", b.WIP).
		Set("qty_finished", b.QtyFinished).
		Set("qty_scrap", b.QtyScrap).
		Set("storage_location", b.StorageLocation).
		Set("expiry_date", b.ExpiryDate).
		Set("quality_status", b.QualityStatus).
		Set("updated_at", b.UpdatedAt).
		Set("version", b.Version).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Lt{"version": b.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("batch", b.ID.String())
	}

	return nil
}

// ListByItem returns batches of an item, newest first.
func (r *BatchRepo) ListByItem(ctx context.Context, itemID id.ID, filter batch.ListFilter) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("created_at DESC")

	if filter.QualityStatus != nil {
		q = q.Where(squirrel.Eq{"quality_status": *filter.QualityStatus})
	}
	if filter.OnlyAvailable {
		q = q.Where("qty_raw + qty_finished > 0")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []batch.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return batches, nil
}

// AvailableByItemFIFO returns issuable batches oldest first.
func (r *BatchRepo) AvailableByItemFIFO(ctx context.Context, itemID id.ID) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where("qty_raw > 0").
		Where(squirrel.NotEq{"quality_status": batch.QualityDefective}).
		OrderBy("COALESCE(mfg_date, created_at) ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []batch.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select available batches: %w", err)
	}

	return batches, nil
}

// CountByCodePrefix counts batches of an item whose code starts with prefix.
func (r *BatchRepo) CountByCodePrefix(ctx context.Context, itemID id.ID, prefix string) (int64, error) {
	q := r.builder.Select("COUNT(*)").
		From(batchesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Like{"batch_code": prefix + "%"})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}

	return count, nil
}

// SummaryByItem aggregates per-state totals for an item.
func (r *BatchRepo) SummaryByItem(ctx context.Context, itemID id.ID) (batch.Summary, error) {
	q := r.builder.Select(
		"COUNT(*) AS batch_count",
		"COALESCE(SUM(qty_raw), 0) AS qty_raw",
		"COALESCE(SUM("+wipTotalExpr+"), 0) AS qty_wip",
		"COALESCE(SUM(qty_finished), 0) AS qty_finished",
		"COALESCE(SUM(qty_scrap), 0) AS qty_scrap",
	).From(batchesTable).
		Where(squirrel.Eq{"item_id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return batch.Summary{}, fmt.Errorf("build query: %w", err)
	}

	summary := batch.Summary{ItemID: itemID}
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(
		&summary.BatchCount, &summary.QtyRaw, &summary.QtyWIP,
		&summary.QtyFinished, &summary.QtyScrap,
	)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("summarize batches: %w", err)
	}

	return summary, nil
}
