package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/report"
	"lotledger/internal/infrastructure/storage/postgres"
)

const reportsTable = "inv_consumption_reports"

var reportColumns = []string{
	"id", "batch_id", "item_id", "batch_code",
	"total_received", "total_issued", "total_finished",
	"total_scrap", "total_returned", "total_dispatched",
	"process_issued",
	"yield_pct", "scrap_pct", "utilization_pct",
	"first_received", "last_movement", "updated_at",
}

// ReportRepo implements report.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new consumption report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ report.Repository = (*ReportRepo)(nil)

// GetByBatch returns the report for a batch, or nil when no movement has
// been recorded yet.
func (r *ReportRepo) GetByBatch(ctx context.Context, batchID id.ID) (*report.ConsumptionReport, error) {
	q := r.builder.Select(reportColumns...).
		From(reportsTable).
		Where(squirrel.Eq{"batch_id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rep report.ConsumptionReport
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rep, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	return &rep, nil
}

// GetOrCreateForUpdate returns the report with a row lock, inserting a zero
// report on first movement. The insert uses ON CONFLICT DO NOTHING so two
// first movements racing on distinct rows cannot both insert.
func (r *ReportRepo) GetOrCreateForUpdate(ctx context.Context, b *batch.Batch) (*report.ConsumptionReport, error) {
	rep, err := r.lockByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if rep != nil {
		return rep, nil
	}

	fresh := report.NewForBatch(b)
	insert := r.builder.Insert(reportsTable).
		Columns("id", "batch_id", "item_id", "batch_code", "process_issued", "updated_at").
		Values(fresh.ID, fresh.BatchID, fresh.ItemID, fresh.BatchCode, fresh.ProcessIssued, fresh.UpdatedAt).
		Suffix("ON CONFLICT (batch_id) DO NOTHING")

	sql, args, err := insert.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	rep, err = r.lockByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, fmt.Errorf("report for batch %s vanished after insert", b.ID)
	}
	return rep, nil
}

func (r *ReportRepo) lockByBatch(ctx context.Context, batchID id.ID) (*report.ConsumptionReport, error) {
	q := r.builder.Select(reportColumns...).
		From(reportsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rep report.ConsumptionReport
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rep, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock report: %w", err)
	}

	return &rep, nil
}

// Save persists the folded totals.
func (r *ReportRepo) Save(ctx context.Context, rep *report.ConsumptionReport) error {
	q := r.builder.Update(reportsTable).
		Set("total_received", rep.TotalReceived).
		Set("total_issued", rep.TotalIssued).
		Set("total_finished", rep.TotalFinished).
		Set("total_scrap", rep.TotalScrap).
		Set("total_returned", rep.TotalReturned).
		Set("total_dispatched", rep.TotalDispatched).
		Set("process_issued", rep.ProcessIssued).
		Set("yield_pct", rep.YieldPct).
		Set("scrap_pct", rep.ScrapPct).
		Set("utilization_pct", rep.UtilizationPct).
		Set("first_received", rep.FirstReceived).
		Set("last_movement", rep.LastMovement).
		Set("updated_at", rep.UpdatedAt).
		Where(squirrel.Eq{"id": rep.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update report: %w", err)
	}

	return nil
}
