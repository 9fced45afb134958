// Package tracking is the batch tracking core: receipt of material into
// batches, issue to job work, return of processed material, and dispatch.
// Every operation runs in one transaction that mutates batch counters,
// appends ledger entries, and folds the consumption report together.
package tracking

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/batchcode"
	appctx "lotledger/internal/core/context"
	"lotledger/internal/core/id"
	"lotledger/internal/core/tx"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/catalogs/item"
	"lotledger/internal/domain/catalogs/vendor"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/report"
	"lotledger/pkg/logger"
)

// Service orchestrates batch lifecycle operations.
type Service struct {
	batches   batch.Repository
	ledger    ledger.Repository
	reports   report.Repository
	items     item.Reader
	vendors   vendor.Reader
	codes     batchcode.Generator
	txManager tx.Manager
	validator *Validator
	poster    ValuationPoster
	auditor   Auditor
	now       func() time.Time
}

// ServiceConfig wires the service dependencies. Poster and Auditor are
// optional; a nil value disables that side channel.
type ServiceConfig struct {
	Batches   batch.Repository
	Ledger    ledger.Repository
	Reports   report.Repository
	Items     item.Reader
	Vendors   vendor.Reader
	Codes     batchcode.Generator
	TxManager tx.Manager
	Poster    ValuationPoster
	Auditor   Auditor

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewService creates the tracking service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		batches:   cfg.Batches,
		ledger:    cfg.Ledger,
		reports:   cfg.Reports,
		items:     cfg.Items,
		vendors:   cfg.Vendors,
		codes:     cfg.Codes,
		txManager: cfg.TxManager,
		validator: NewValidator(cfg.Batches),
		poster:    cfg.Poster,
		auditor:   cfg.Auditor,
		now:       now,
	}
}

// Validator exposes the selection/FIFO validator for read-only endpoints.
func (s *Service) Validator() *Validator {
	return s.validator
}

// ReceiveFromPurchase creates a batch from a GRN line. The batch code is
// the supplier's lot number when the item is not auto-numbered and one was
// provided; otherwise a sequential code is generated inside the transaction.
func (s *Service) ReceiveFromPurchase(ctx context.Context, line GRNLine, supplierBatchNo string) (*batch.Batch, error) {
	if id.IsNil(line.ItemID) {
		return nil, apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	if !line.QuantityReceived.IsPositive() {
		return nil, apperror.NewValidation("received quantity must be greater than 0").
			WithDetail("field", "quantityReceived")
	}
	if line.RatePerUnit.IsNegative() {
		return nil, apperror.NewValidation("rate cannot be negative").
			WithDetail("field", "ratePerUnit")
	}

	itm, err := s.items.GetByID(ctx, line.ItemID)
	if err != nil {
		return nil, err
	}
	if !itm.BatchRequired {
		return nil, apperror.NewTrackingNotRequired(itm.ID)
	}

	received := line.ReceivedDate
	if received.IsZero() {
		received = s.now()
	}

	var created *batch.Batch
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code := supplierBatchNo
		if itm.AutoBatchNumbering || code == "" {
			cfg := batchcode.DefaultConfig(batchcode.PrefixFor(itm.Code, itm.DefaultBatchPrefix))
			generated, genErr := s.codes.NextCode(ctx, cfg, itm.ID, received)
			if genErr != nil {
				return genErr
			}
			code = generated
		}

		b := batch.New(itm.ID, code, itm.UnitOfMeasure)
		b.QtyRaw = line.QuantityReceived
		b.StorageLocation = line.StorageLocation
		if b.StorageLocation == "" {
			b.StorageLocation = defaultLocation
		}
		mfg := received
		b.MfgDate = &mfg
		if itm.ShelfLifeDays > 0 {
			expiry := received.AddDate(0, 0, itm.ShelfLifeDays)
			b.ExpiryDate = &expiry
		}
		b.SupplierLot = supplierBatchNo
		b.UnitCost = line.RatePerUnit
		b.SourceType = batch.SourcePurchase
		grnID := line.GRNID
		b.SourceRefID = &grnID
		b.CreatedBy = appctx.GetUserID(ctx)

		if valErr := b.Validate(ctx); valErr != nil {
			return valErr
		}
		if createErr := s.batches.Create(ctx, b); createErr != nil {
			return createErr
		}

		entry := ledger.NewEntry(ledger.RefGRN, line.GRNNumber, b, "", batch.StateRaw, line.QuantityReceived)
		entry.RefID = &grnID
		entry.VendorID = line.SupplierID
		entry.Notes = fmt.Sprintf("Received against %s", line.GRNNumber)
		entry.CreatedBy = b.CreatedBy
		if appendErr := s.ledger.Append(ctx, []*ledger.Entry{entry}); appendErr != nil {
			return appendErr
		}

		if foldErr := s.foldMovements(ctx, map[id.ID]*batch.Batch{b.ID: b}, []*ledger.Entry{entry}); foldErr != nil {
			return foldErr
		}

		s.audit(ctx, AuditActionReceive, b.ID, b)
		s.postValuation(ctx, ValuationEvent{
			BatchID:    b.ID,
			BatchCode:  b.BatchCode,
			ItemID:     b.ItemID,
			Quantity:   line.QuantityReceived,
			TotalValue: line.RatePerUnit.Mul(line.QuantityReceived.Decimal()),
			Direction:  "receipt",
			OccurredAt: received,
		})

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch received",
		"batch_code", created.BatchCode,
		"item_id", created.ItemID,
		"quantity", line.QuantityReceived,
	)
	return created, nil
}

// IssueToJobWork moves raw material into process WIP against a job-work
// document. Validation runs entirely before the first mutation: any hard
// problem aborts the whole issue with every problem listed, so the caller
// never has to unwind a partial issue.
func (s *Service) IssueToJobWork(ctx context.Context, job JobWorkRef, selections []IssueSelection) (IssueResult, error) {
	if len(selections) == 0 {
		return IssueResult{}, apperror.NewValidation("at least one batch selection is required")
	}
	if job.Number == "" {
		return IssueResult{}, apperror.NewValidation("job work number is required")
	}

	var result IssueResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, lockErr := s.lockSelected(ctx, selections)
		if lockErr != nil {
			return lockErr
		}

		check := CheckSelection(selections, locked, s.now())
		if !check.Valid {
			return apperror.NewIssueAborted(check.Errors)
		}
		warnings := append([]string{}, check.Warnings...)

		fifoWarnings, fifoErr := s.fifoAdvisories(ctx, locked)
		if fifoErr != nil {
			return fifoErr
		}
		warnings = append(warnings, fifoWarnings...)

		createdBy := appctx.GetUserID(ctx)
		entries := make([]*ledger.Entry, 0, len(selections))
		for _, sel := range selections {
			b := locked[sel.BatchID]
			p := sel.Process
			if p == "" {
				p = defaultProcess
			}
			to := batch.WIPState(p)
			if moveErr := b.MoveQuantity(batch.StateRaw, to, sel.Quantity); moveErr != nil {
				return moveErr
			}

			entry := ledger.NewEntry(ledger.RefJobWork, job.Number, b, batch.StateRaw, to, sel.Quantity)
			jobID := job.ID
			entry.RefID = &jobID
			entry.VendorID = job.VendorID
			entry.ProcessName = p
			entry.CreatedBy = createdBy
			entries = append(entries, entry)
		}

		for _, b := range locked {
			if updateErr := s.batches.Update(ctx, b); updateErr != nil {
				return updateErr
			}
		}
		if appendErr := s.ledger.Append(ctx, entries); appendErr != nil {
			return appendErr
		}
		if foldErr := s.foldMovements(ctx, locked, entries); foldErr != nil {
			return foldErr
		}

		s.audit(ctx, AuditActionIssue, job.ID, entries)

		result = IssueResult{
			Issued:   check.TotalQuantity,
			Count:    len(entries),
			Warnings: warnings,
		}
		return nil
	})
	if err != nil {
		return IssueResult{}, err
	}

	logger.Info(ctx, "material issued to job work",
		"job_number", job.Number,
		"batches", result.Count,
		"quantity", result.Issued,
	)
	return result, nil
}

// ReturnResult reports what a job-work return produced.
type ReturnResult struct {
	Finished      types.Quantity `json:"finished"`
	Scrap         types.Quantity `json:"scrap"`
	Returned      types.Quantity `json:"returned"`
	OutputBatches []id.ID        `json:"outputBatches,omitempty"`
}

// ReceiveFromJobWork records a job-work return: finished output, scrap, and
// unused material against the input batches that were issued. When a line
// names a different output item, the finished quantity materializes as a new
// batch linked to the input batch; the input batch keeps its WIP for the
// consumed material.
func (s *Service) ReceiveFromJobWork(ctx context.Context, job JobWorkRef, lines []ReturnLine) (ReturnResult, error) {
	if len(lines) == 0 {
		return ReturnResult{}, apperror.NewValidation("at least one return line is required")
	}
	if job.Number == "" {
		return ReturnResult{}, apperror.NewValidation("job work number is required")
	}
	for _, line := range lines {
		if line.FinishedQty.IsNegative() || line.ScrapQty.IsNegative() || line.UnusedQty.IsNegative() {
			return ReturnResult{}, apperror.NewValidation("return quantities cannot be negative")
		}
		if line.FinishedQty.IsZero() && line.ScrapQty.IsZero() && line.UnusedQty.IsZero() {
			return ReturnResult{}, apperror.NewValidation("return line has no quantity")
		}
	}

	var result ReturnResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked := make(map[id.ID]*batch.Batch, len(lines))
		lockedVersions := make(map[id.ID]int, len(lines))
		for _, line := range lines {
			if locked[line.InputBatchID] != nil {
				continue
			}
			b, lockErr := s.batches.GetByIDForUpdate(ctx, line.InputBatchID)
			if lockErr != nil {
				return lockErr
			}
			locked[line.InputBatchID] = b
			lockedVersions[line.InputBatchID] = b.Version
		}

		// WIP availability is checked for every line before the first
		// mutation, accumulating per batch and process so repeated lines
		// against one pool are caught.
		needed := make(map[id.ID]map[batch.Process]types.Quantity)
		var problems []string
		for _, line := range lines {
			b := locked[line.InputBatchID]
			p := line.Process
			if p == "" {
				p = defaultProcess
			}
			want := line.ScrapQty + line.UnusedQty
			if s.returnsToSameItem(line, b) {
				want += line.FinishedQty
			}
			if needed[b.ID] == nil {
				needed[b.ID] = make(map[batch.Process]types.Quantity)
			}
			needed[b.ID][p] += want
			if have := b.WIPQty(p); have < needed[b.ID][p] {
				problems = append(problems,
					fmt.Sprintf("insufficient WIP in batch %s for process %s: available %s, required %s",
						b.BatchCode, p, have, needed[b.ID][p]))
			}
		}
		if len(problems) > 0 {
			return apperror.NewInvalidSelection(problems)
		}

		createdBy := appctx.GetUserID(ctx)
		entries := make([]*ledger.Entry, 0, len(lines)*3)
		outputs := make(map[id.ID]*batch.Batch)
		jobID := job.ID

		stamp := func(e *ledger.Entry, p batch.Process) *ledger.Entry {
			e.RefID = &jobID
			e.VendorID = job.VendorID
			e.ProcessName = p
			e.CreatedBy = createdBy
			return e
		}

		for _, line := range lines {
			b := locked[line.InputBatchID]
			p := line.Process
			if p == "" {
				p = defaultProcess
			}
			wipState := batch.WIPState(p)

			if line.FinishedQty.IsPositive() {
				if s.returnsToSameItem(line, b) {
					if moveErr := b.MoveQuantity(wipState, batch.StateFinished, line.FinishedQty); moveErr != nil {
						return moveErr
					}
					entries = append(entries,
						stamp(ledger.NewEntry(ledger.RefJobWork, job.Number, b, wipState, batch.StateFinished, line.FinishedQty), p))
				} else {
					out, outErr := s.createOutputBatch(ctx, job, line, b, createdBy)
					if outErr != nil {
						return outErr
					}
					outputs[out.ID] = out
					result.OutputBatches = append(result.OutputBatches, out.ID)
					entry := stamp(ledger.NewEntry(ledger.RefJobWork, job.Number, out, "", batch.StateFinished, line.FinishedQty), p)
					entry.Notes = fmt.Sprintf("Output of %s from batch %s", job.Number, b.BatchCode)
					entries = append(entries, entry)
				}
				result.Finished += line.FinishedQty
			}

			if line.ScrapQty.IsPositive() {
				if moveErr := b.MoveQuantity(wipState, batch.StateScrap, line.ScrapQty); moveErr != nil {
					return moveErr
				}
				entry := stamp(ledger.NewEntry(ledger.RefJobWork, job.Number, b, wipState, batch.StateScrap, line.ScrapQty), p)
				entry.QualityStatus = batch.QualityDefective
				entries = append(entries, entry)
				result.Scrap += line.ScrapQty
			}

			if line.UnusedQty.IsPositive() {
				if moveErr := b.MoveQuantity(wipState, batch.StateRaw, line.UnusedQty); moveErr != nil {
					return moveErr
				}
				entries = append(entries,
					stamp(ledger.NewEntry(ledger.RefJobWork, job.Number, b, wipState, batch.StateRaw, line.UnusedQty), p))
				result.Returned += line.UnusedQty
			}
		}

		// A line whose only movement went into an output batch leaves its
		// input untouched; writing it back would trip the version check.
		for bid, b := range locked {
			if b.Version == lockedVersions[bid] {
				continue
			}
			if updateErr := s.batches.Update(ctx, b); updateErr != nil {
				return updateErr
			}
		}
		if appendErr := s.ledger.Append(ctx, entries); appendErr != nil {
			return appendErr
		}

		affected := make(map[id.ID]*batch.Batch, len(locked)+len(outputs))
		for bid, b := range locked {
			affected[bid] = b
		}
		for bid, b := range outputs {
			affected[bid] = b
		}
		if foldErr := s.foldMovements(ctx, affected, entries); foldErr != nil {
			return foldErr
		}

		s.audit(ctx, AuditActionReturn, job.ID, entries)
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}

	logger.Info(ctx, "job work return received",
		"job_number", job.Number,
		"finished", result.Finished,
		"scrap", result.Scrap,
		"returned", result.Returned,
	)
	return result, nil
}

// Dispatch ships finished quantity out of a batch against a sales reference.
// Dispatched quantity leaves the batch; the ledger keeps the history.
func (s *Service) Dispatch(ctx context.Context, batchID id.ID, qty types.Quantity, salesRef string) (*batch.Batch, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("dispatch quantity must be greater than 0")
	}

	ref := salesRef
	if ref == "" {
		ref = "DIRECT-DISPATCH"
	}

	var dispatched *batch.Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, lockErr := s.batches.GetByIDForUpdate(ctx, batchID)
		if lockErr != nil {
			return lockErr
		}

		if moveErr := b.MoveQuantity(batch.StateFinished, batch.StateDispatched, qty); moveErr != nil {
			return moveErr
		}
		if updateErr := s.batches.Update(ctx, b); updateErr != nil {
			return updateErr
		}

		entry := ledger.NewEntry(ledger.RefDispatch, ref, b, batch.StateFinished, batch.StateDispatched, qty)
		entry.CreatedBy = appctx.GetUserID(ctx)
		if appendErr := s.ledger.Append(ctx, []*ledger.Entry{entry}); appendErr != nil {
			return appendErr
		}
		if foldErr := s.foldMovements(ctx, map[id.ID]*batch.Batch{b.ID: b}, []*ledger.Entry{entry}); foldErr != nil {
			return foldErr
		}

		s.audit(ctx, AuditActionDispatch, b.ID, entry)
		dispatched = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch dispatched",
		"batch_code", dispatched.BatchCode,
		"quantity", qty,
		"ref", ref,
	)
	return dispatched, nil
}

// lockSelected loads every selected batch with a row lock, once per batch.
func (s *Service) lockSelected(ctx context.Context, selections []IssueSelection) (map[id.ID]*batch.Batch, error) {
	locked := make(map[id.ID]*batch.Batch, len(selections))
	for _, sel := range selections {
		if id.IsNil(sel.BatchID) || locked[sel.BatchID] != nil {
			continue
		}
		b, err := s.batches.GetByIDForUpdate(ctx, sel.BatchID)
		if err != nil {
			if apperror.IsNotFound(err) {
				// Reported as a selection problem by CheckSelection.
				continue
			}
			return nil, err
		}
		locked[sel.BatchID] = b
	}
	return locked, nil
}

// fifoAdvisories runs the advisory FIFO check once per item in the
// selection and returns the non-compliance messages.
func (s *Service) fifoAdvisories(ctx context.Context, locked map[id.ID]*batch.Batch) ([]string, error) {
	byItem := make(map[id.ID][]id.ID)
	for bid, b := range locked {
		byItem[b.ItemID] = append(byItem[b.ItemID], bid)
	}
	var warnings []string
	for itemID, batchIDs := range byItem {
		res, err := s.validator.ValidateFIFO(ctx, itemID, batchIDs)
		if err != nil {
			return nil, err
		}
		if !res.Compliant {
			warnings = append(warnings, res.Message)
		}
	}
	return warnings, nil
}

// returnsToSameItem reports whether a return line's finished output stays in
// the input batch's item.
func (s *Service) returnsToSameItem(line ReturnLine, input *batch.Batch) bool {
	return line.OutputItemID == nil || *line.OutputItemID == input.ItemID
}

// createOutputBatch materializes job-work output of a different item as a
// new batch linked to the input batch. Cost and location carry over from the
// input; the output is considered inspected by the job-work QC step.
func (s *Service) createOutputBatch(ctx context.Context, job JobWorkRef, line ReturnLine, input *batch.Batch, createdBy string) (*batch.Batch, error) {
	outItem, err := s.items.GetByID(ctx, *line.OutputItemID)
	if err != nil {
		return nil, err
	}

	cfg := batchcode.DefaultConfig(batchcode.PrefixFor(outItem.Code, outItem.DefaultBatchPrefix))
	code, err := s.codes.NextCode(ctx, cfg, outItem.ID, s.now())
	if err != nil {
		return nil, err
	}

	out := batch.New(outItem.ID, code, outItem.UnitOfMeasure)
	out.QtyFinished = line.FinishedQty
	out.StorageLocation = input.StorageLocation
	mfg := s.now()
	out.MfgDate = &mfg
	if outItem.ShelfLifeDays > 0 {
		expiry := mfg.AddDate(0, 0, outItem.ShelfLifeDays)
		out.ExpiryDate = &expiry
	}
	out.SupplierLot = "JW-" + job.Number
	out.UnitCost = input.UnitCost
	out.QualityStatus = batch.QualityGood
	out.SourceType = batch.SourceJobWork
	jobID := job.ID
	out.SourceRefID = &jobID
	inputID := input.ID
	out.ParentBatchID = &inputID
	out.CreatedBy = createdBy

	if err := out.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.batches.Create(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// foldMovements folds ledger entries into the consumption reports of the
// affected batches, one locked read and one save per batch.
func (s *Service) foldMovements(ctx context.Context, batches map[id.ID]*batch.Batch, entries []*ledger.Entry) error {
	reports := make(map[id.ID]*report.ConsumptionReport, len(batches))
	for _, e := range entries {
		r, ok := reports[e.BatchID]
		if !ok {
			b := batches[e.BatchID]
			if b == nil {
				return apperror.NewInternal(fmt.Errorf("movement for unloaded batch %s", e.BatchID))
			}
			loaded, err := s.reports.GetOrCreateForUpdate(ctx, b)
			if err != nil {
				return err
			}
			r = loaded
			reports[e.BatchID] = r
		}
		r.ApplyMovement(e)
	}
	for _, r := range reports {
		if err := s.reports.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, action string, entityID id.ID, payload any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, action, entityID, payload); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}

func (s *Service) postValuation(ctx context.Context, event ValuationEvent) {
	if s.poster == nil {
		return
	}
	if err := s.poster.PostValuation(ctx, event); err != nil {
		logger.Warn(ctx, "valuation post failed",
			"batch_code", event.BatchCode, "error", err)
	}
}
