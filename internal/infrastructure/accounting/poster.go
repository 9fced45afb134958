// Package accounting integrates with the external accounting subsystem.
// Valuation events are written to the transactional outbox and delivered by
// the background worker; inventory operations never wait on accounting.
package accounting

import (
	"context"

	"lotledger/internal/domain/tracking"
	"lotledger/internal/infrastructure/storage/postgres"
)

// EventValuationPosted is the outbox event type for inventory valuations.
const EventValuationPosted = "ValuationPosted"

// OutboxPoster implements tracking.ValuationPoster over the transactional
// outbox. Must be called inside the operation's transaction so the event
// commits or rolls back with the inventory change.
type OutboxPoster struct {
	publisher *postgres.OutboxPublisher
}

// NewOutboxPoster creates a new outbox-backed valuation poster.
func NewOutboxPoster(publisher *postgres.OutboxPublisher) *OutboxPoster {
	return &OutboxPoster{publisher: publisher}
}

var _ tracking.ValuationPoster = (*OutboxPoster)(nil)

// PostValuation enqueues a valuation event.
func (p *OutboxPoster) PostValuation(ctx context.Context, event tracking.ValuationEvent) error {
	return p.publisher.Publish(ctx, postgres.DomainEvent{
		AggregateType: "Batch",
		AggregateID:   event.BatchID,
		EventType:     EventValuationPosted,
		Payload:       event,
	})
}
