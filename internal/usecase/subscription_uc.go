// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/adapter"
	"press-subscription/internal/domain/ports/repository"
	"press-subscription/internal/infra/logging"
	"press-subscription/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase is the lifecycle engine for user subscriptions.
type SubscriptionUseCase interface {
	Create(ctx context.Context, actor *model.User, publicationID string, months int, autoRenew bool) (*model.Subscription, error)
	ListMine(ctx context.Context, actor *model.User) ([]*model.Subscription, error)
	Cancel(ctx context.Context, actor *model.User, subscriptionID string) error
	// CountByStatus refreshes the subscriptions_total gauge and returns the counts.
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

type subscriptionUC struct {
	subs   repository.SubscriptionRepository
	pubs   repository.PublicationRepository
	tm     repository.TransactionManager
	events adapter.EventPublisher
	log    *zerolog.Logger
	now    func() time.Time
}

// NewSubscriptionUseCase wires the engine. events may be nil, in which case
// lifecycle transitions are not announced.
func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	pubs repository.PublicationRepository,
	tm repository.TransactionManager,
	events adapter.EventPublisher,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{
		subs:   subs,
		pubs:   pubs,
		tm:     tm,
		events: events,
		log:    logging.OrNop(logger),
		now:    time.Now,
	}
}

func (u *subscriptionUC) Create(ctx context.Context, actor *model.User, publicationID string, months int, autoRenew bool) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Create")()

	if err := requireActive(actor); err != nil {
		return nil, u.rejected(err)
	}
	if !model.ValidDuration(months) || publicationID == "" {
		return nil, u.rejected(domain.ErrInvalidArgument)
	}

	var sub *model.Subscription
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		pub, err := u.pubs.FindByID(ctx, tx, publicationID)
		if err != nil {
			return err
		}
		if !pub.Subscribable() {
			return domain.ErrNotFound
		}

		existing, err := u.subs.FindActive(ctx, tx, actor.ID, pub.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.ErrConflict
		}

		s, err := model.NewSubscription("", actor.ID, pub, months, autoRenew, u.now())
		if err != nil {
			return err
		}
		if err := u.subs.Insert(ctx, tx, s); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		// a racing create that slipped past FindActive surfaces here
		if errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrSerialization) {
			err = domain.ErrConflict
		}
		return nil, u.rejected(err)
	}

	metrics.IncSubscriptionCreated(model.TierFor(months), sub.Price)
	u.publish(ctx, adapter.EventSubscriptionCreated, sub)
	return sub, nil
}

func (u *subscriptionUC) ListMine(ctx context.Context, actor *model.User) ([]*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.ListMine")()

	if actor.IsZero() {
		return nil, domain.ErrForbidden
	}
	subs, err := u.subs.ListByUser(ctx, repository.NoTX, actor.ID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}
	return subs, nil
}

func (u *subscriptionUC) Cancel(ctx context.Context, actor *model.User, subscriptionID string) error {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()

	if err := requireActive(actor); err != nil {
		return u.rejected(err)
	}
	if subscriptionID == "" {
		return u.rejected(domain.ErrNotFound)
	}

	var sub *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		s, err := u.subs.FindOwned(ctx, tx, subscriptionID, actor.ID)
		if err != nil {
			return err
		}
		if err := s.Cancel(); err != nil {
			return err
		}
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		return u.rejected(err)
	}

	metrics.IncSubscriptionCancelled()
	u.publish(ctx, adapter.EventSubscriptionCancelled, sub)
	return nil
}

func (u *subscriptionUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.CountByStatus")()

	counts, err := u.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	metrics.SetSubscriptionsTotal(counts)
	return counts, nil
}

// publish announces a committed transition. Delivery problems never undo the
// transition, so they are only logged.
func (u *subscriptionUC) publish(ctx context.Context, typ string, s *model.Subscription) {
	if u.events == nil || s == nil {
		return
	}
	ev := adapter.SubscriptionEvent{
		Type:           typ,
		SubscriptionID: s.ID,
		UserID:         s.UserID,
		PublicationID:  s.PublicationID,
		Status:         string(s.Status),
		Price:          s.Price,
		OccurredAt:     u.now().UTC(),
	}
	if err := u.events.Publish(ctx, ev); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).
			Str("event", typ).
			Str("subscription_id", s.ID).
			Msg("failed to publish subscription event")
	}
}

// rejected records business refusals and hands err back unchanged.
// Infrastructure failures are not rejections and are left uncounted.
func (u *subscriptionUC) rejected(err error) error {
	if reason, ok := rejectionReason(err); ok {
		metrics.IncSubscriptionRejected(reason)
	}
	return err
}

func rejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden", true
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid", true
	case errors.Is(err, domain.ErrNotFound):
		return "not_found", true
	case errors.Is(err, domain.ErrConflict):
		return "conflict", true
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state", true
	default:
		return "", false
	}
}
