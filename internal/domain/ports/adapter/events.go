package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// SubscriptionEvent is emitted after a lifecycle transition has been committed.
type SubscriptionEvent struct {
	Type           string          `json:"type"`
	SubscriptionID string          `json:"subscription_id"`
	UserID         string          `json:"user_id"`
	PublicationID  string          `json:"publication_id"`
	Status         string          `json:"status"`
	Price          decimal.Decimal `json:"price"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev SubscriptionEvent) error
	Close() error
}
