package tracking

import (
	"context"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// ValuationEvent is the inventory valuation posted to the accounting
// subsystem when material is received. Accounting is a one-way collaborator:
// the tracking core never depends on its success for its own consistency.
type ValuationEvent struct {
	BatchID    id.ID          `json:"batchId"`
	BatchCode  string         `json:"batchCode"`
	ItemID     id.ID          `json:"itemId"`
	Quantity   types.Quantity `json:"quantity"`
	TotalValue types.Money    `json:"totalValue"`
	Direction  string         `json:"direction"` // receipt
	OccurredAt time.Time      `json:"occurredAt"`
}

// ValuationPoster delivers valuation events to accounting. The production
// implementation enqueues to the transactional outbox; a failed enqueue is
// logged and never rolls back the inventory operation.
type ValuationPoster interface {
	PostValuation(ctx context.Context, event ValuationEvent) error
}

// Auditor records who did what for the operation audit trail.
type Auditor interface {
	Record(ctx context.Context, action string, entityID id.ID, payload any) error
}

// Audit actions recorded by the tracking operations.
const (
	AuditActionReceive  = "batch.received"
	AuditActionIssue    = "jobwork.issued"
	AuditActionReturn   = "jobwork.returned"
	AuditActionDispatch = "batch.dispatched"
)
