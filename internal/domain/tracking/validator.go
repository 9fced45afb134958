package tracking

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
)

// expiryWarnDays is the advisory window for "expires soon" warnings.
const expiryWarnDays = 7

// Validator runs pre-flight checks for batch operations. It is stateless:
// errors are collected, not short-circuited, so a UI can show all problems
// at once. Warnings never block an operation.
type Validator struct {
	batches batch.Repository
}

// NewValidator creates a validator over the batch repository.
func NewValidator(batches batch.Repository) *Validator {
	return &Validator{batches: batches}
}

// SelectionResult is the outcome of ValidateSelection.
type SelectionResult struct {
	Valid         bool           `json:"valid"`
	Errors        []string       `json:"errors"`
	Warnings      []string       `json:"warnings"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
}

// ValidateSelection checks a batch selection for issue to job work or
// production: positive quantities, batch existence, sufficient raw stock,
// quality status (defective = error, pending inspection = warning) and
// expiry (expired = error, expiring within expiryWarnDays = warning).
func (v *Validator) ValidateSelection(ctx context.Context, selections []IssueSelection) (SelectionResult, error) {
	loaded := make(map[id.ID]*batch.Batch, len(selections))
	for _, sel := range selections {
		if id.IsNil(sel.BatchID) || loaded[sel.BatchID] != nil {
			continue
		}
		b, err := v.batches.GetByID(ctx, sel.BatchID)
		if err != nil {
			// Missing batches become selection errors below;
			// infrastructure failures abort validation.
			if !apperror.IsNotFound(err) {
				return SelectionResult{}, err
			}
			continue
		}
		loaded[sel.BatchID] = b
	}

	return CheckSelection(selections, loaded, time.Now().UTC()), nil
}

// CheckSelection validates selections against already-loaded batches.
// The tracking service calls this with row-locked copies so the check and
// the mutation see the same snapshot.
func CheckSelection(selections []IssueSelection, loaded map[id.ID]*batch.Batch, now time.Time) SelectionResult {
	result := SelectionResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	// Requested quantity accumulates per batch so duplicate selections of
	// one batch are checked against its single raw counter.
	requested := make(map[id.ID]types.Quantity)

	for _, sel := range selections {
		if id.IsNil(sel.BatchID) {
			result.Errors = append(result.Errors, "batch id is required")
			continue
		}
		if !sel.Quantity.IsPositive() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("quantity must be greater than 0 for batch %s", sel.BatchID))
			continue
		}

		b, ok := loaded[sel.BatchID]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("batch %s not found", sel.BatchID))
			continue
		}

		requested[sel.BatchID] += sel.Quantity
		if b.QtyRaw < requested[sel.BatchID] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("insufficient quantity in batch %s: available %s, required %s",
					b.BatchCode, b.QtyRaw, requested[sel.BatchID]))
		}

		switch b.QualityStatus {
		case batch.QualityDefective:
			result.Errors = append(result.Errors,
				fmt.Sprintf("cannot use defective batch %s", b.BatchCode))
		case batch.QualityPendingInspection:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("batch %s is pending inspection", b.BatchCode))
		}

		if b.IsExpired(now) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("batch %s has expired", b.BatchCode))
		} else if b.ExpiresWithin(now, expiryWarnDays) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("batch %s expires soon (%s)", b.BatchCode,
					b.ExpiryDate.Format("2006-01-02")))
		}

		result.TotalQuantity += sel.Quantity
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// FIFOSuggestion points at the oldest available batch that was skipped.
type FIFOSuggestion struct {
	BatchID      id.ID          `json:"batchId"`
	BatchCode    string         `json:"batchCode"`
	MfgDate      *time.Time     `json:"mfgDate,omitempty"`
	AvailableQty types.Quantity `json:"availableQty"`
}

// FIFOResult is the outcome of ValidateFIFO.
type FIFOResult struct {
	Compliant      bool            `json:"compliant"`
	Message        string          `json:"message"`
	SuggestedBatch *FIFOSuggestion `json:"suggestedBatch,omitempty"`
}

// ValidateFIFO checks whether a selection consumes the oldest available
// batches first. The check is advisory: non-compliance is a warning with a
// suggested batch, never a hard block.
func (v *Validator) ValidateFIFO(ctx context.Context, itemID id.ID, requestedBatchIDs []id.ID) (FIFOResult, error) {
	available, err := v.batches.AvailableByItemFIFO(ctx, itemID)
	if err != nil {
		return FIFOResult{}, err
	}

	if len(available) == 0 {
		return FIFOResult{Compliant: true, Message: "No available batches"}, nil
	}

	selected := make(map[id.ID]bool, len(requestedBatchIDs))
	for _, batchID := range requestedBatchIDs {
		selected[batchID] = true
	}

	// available is ordered oldest first. A violation is an unselected batch
	// with raw stock that is older than some selected batch; anything newer
	// than the whole selection is fine to leave on the shelf.
	lastSelected := -1
	for i := range available {
		if selected[available[i].ID] {
			lastSelected = i
		}
	}

	for i := 0; i < lastSelected; i++ {
		b := &available[i]
		if selected[b.ID] || !b.QtyRaw.IsPositive() {
			continue
		}
		mfg := "unknown"
		if b.MfgDate != nil {
			mfg = b.MfgDate.Format("2006-01-02")
		}
		return FIFOResult{
			Compliant: false,
			Message: fmt.Sprintf("FIFO violation: older batch %s (date: %s) should be used before newer batches",
				b.BatchCode, mfg),
			SuggestedBatch: &FIFOSuggestion{
				BatchID:      b.ID,
				BatchCode:    b.BatchCode,
				MfgDate:      b.MfgDate,
				AvailableQty: b.QtyRaw,
			},
		}, nil
	}

	return FIFOResult{Compliant: true, Message: "FIFO compliance maintained"}, nil
}
