package repository

import (
	"context"

	"press-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	// Insert returns domain.ErrAlreadyExists when the store already holds an
	// active subscription for the same (user, publication) pair.
	Insert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindActive(ctx context.Context, tx Tx, userID, publicationID string) (*model.Subscription, error)
	// ListByUser returns the user's subscriptions newest first with publication snapshots.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	// FindOwned returns the subscription only if it belongs to userID; inside a
	// transaction the row is locked until commit.
	FindOwned(ctx context.Context, tx Tx, id, userID string) (*model.Subscription, error)
	// Update persists the mutable fields (status, auto_renew).
	Update(ctx context.Context, tx Tx, s *model.Subscription) error
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
