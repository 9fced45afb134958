package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/infrastructure/storage/postgres"
)

const movementsTable = "inv_movements"

var movementColumns = []string{
	"id", "ref_type", "ref_id", "ref_number",
	"batch_id", "item_id",
	"from_state", "to_state", "quantity", "unit_of_measure",
	"process_name", "vendor_id", "storage_location",
	"cost_per_unit", "total_cost", "quality_status",
	"movement_date", "notes", "created_by", "created_at",
}

// LedgerRepo implements ledger.Repository. The table is append-only; there
// is deliberately no update or delete statement in this file.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new movement ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// Append inserts movement entries.
func (r *LedgerRepo) Append(ctx context.Context, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.RefType, e.RefID, e.RefNumber,
				e.BatchID, e.ItemID,
				e.FromState, e.ToState, e.Quantity, e.UnitOfMeasure,
				e.ProcessName, e.VendorID, e.StorageLocation,
				e.CostPerUnit, e.TotalCost, e.QualityStatus,
				e.MovementDate, e.Notes, e.CreatedBy, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert. Prefer calling Append within tx.
	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.RefType, e.RefID, e.RefNumber,
			e.BatchID, e.ItemID,
			e.FromState, e.ToState, e.Quantity, e.UnitOfMeasure,
			e.ProcessName, e.VendorID, e.StorageLocation,
			e.CostPerUnit, e.TotalCost, e.QualityStatus,
			e.MovementDate, e.Notes, e.CreatedBy, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// ListByBatch returns the full history of a batch, oldest first.
func (r *LedgerRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("created_at ASC", "id ASC")

	return r.selectEntries(ctx, q)
}

// ListByItem returns movements of an item, newest first.
func (r *LedgerRepo) ListByItem(ctx context.Context, itemID id.ID, filter ledger.Filter) ([]ledger.Entry, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("created_at DESC")

	return r.selectEntries(ctx, applyFilter(q, filter))
}

// ListByVendor returns movements tied to a vendor, newest first.
func (r *LedgerRepo) ListByVendor(ctx context.Context, vendorID id.ID, filter ledger.Filter) ([]ledger.Entry, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"vendor_id": vendorID}).
		OrderBy("created_at DESC")

	return r.selectEntries(ctx, applyFilter(q, filter))
}

// DispatchedTotal sums quantity dispatched from a batch to date.
func (r *LedgerRepo) DispatchedTotal(ctx context.Context, batchID id.ID) (int64, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		Where(squirrel.Eq{"ref_type": ledger.RefDispatch})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum dispatched: %w", err)
	}

	return total, nil
}

func applyFilter(q squirrel.SelectBuilder, filter ledger.Filter) squirrel.SelectBuilder {
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"movement_date": *filter.ToDate})
	}
	if filter.RefType != nil {
		q = q.Where(squirrel.Eq{"ref_type": *filter.RefType})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func (r *LedgerRepo) selectEntries(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.Entry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return entries, nil
}
