//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"golang.org/x/sync/errgroup"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/adapter"
	"press-subscription/internal/domain/ports/repository"
	"press-subscription/internal/usecase"
)

type subFixture struct {
	subs   *MockSubscriptionRepo
	pubs   *MockPublicationRepo
	tm     *MockTxManager
	events *MockEvents
	uc     usecase.SubscriptionUseCase
}

func newSubFixture(pubs ...*model.Publication) *subFixture {
	f := &subFixture{
		subs:   NewMockSubscriptionRepo(),
		pubs:   NewMockPublicationRepo(pubs...),
		tm:     NewMockTxManager(),
		events: &MockEvents{},
	}
	f.uc = usecase.NewSubscriptionUseCase(f.subs, f.pubs, f.tm, f.events, newTestLogger())
	return f
}

func TestSubscriptionUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create an active priced subscription", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		user := newActiveUser("user-1")

		before := time.Now().UTC()
		sub, err := f.uc.Create(ctx, user, "pub-1", 12, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sub.Status != model.SubscriptionStatusActive {
			t.Errorf("expected status active, got %q", sub.Status)
		}
		if !sub.Price.Equal(dec("100")) {
			t.Errorf("expected price 100 for 12 months, got %s", sub.Price)
		}
		if got := sub.EndDate.Sub(sub.StartDate); got != 360*24*time.Hour {
			t.Errorf("expected 360 days between start and end, got %v", got)
		}
		if sub.StartDate.Before(before.Add(-time.Second)) || sub.StartDate.Location() != time.UTC {
			t.Errorf("expected start date to be now in UTC, got %v", sub.StartDate)
		}
		if !sub.AutoRenew || sub.UserID != "user-1" || sub.PublicationID != "pub-1" {
			t.Errorf("unexpected subscription fields: %+v", sub)
		}
		if sub.Publication == nil || sub.Publication.ID != "pub-1" {
			t.Error("expected publication snapshot on the result")
		}
		if f.subs.Get(sub.ID) == nil {
			t.Error("expected subscription to be stored")
		}
	})

	t.Run("should run inside a serializable transaction", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		if _, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 3, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.tm.Opts) != 1 || f.tm.Opts[0].IsoLevel != pgx.Serializable {
			t.Errorf("expected one serializable transaction, got %+v", f.tm.Opts)
		}
	})

	t.Run("should publish a created event after commit", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		sub, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 6, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.events.Published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(f.events.Published))
		}
		ev := f.events.Published[0]
		if ev.Type != adapter.EventSubscriptionCreated || ev.SubscriptionID != sub.ID || !ev.Price.Equal(dec("60")) {
			t.Errorf("unexpected event: %+v", ev)
		}
	})

	t.Run("should succeed even when the event cannot be delivered", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		f.events.PublishFunc = func(ctx context.Context, ev adapter.SubscriptionEvent) error {
			return errors.New("broker down")
		}
		if _, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 1, false); err != nil {
			t.Fatalf("expected publish failure to be swallowed, got %v", err)
		}
	})

	t.Run("should reject a deactivated actor with Forbidden", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		user := newActiveUser("user-1")
		user.IsActive = false

		_, err := f.uc.Create(ctx, user, "pub-1", 1, false)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if f.subs.Calls.Insert != 0 {
			t.Error("expected nothing to be inserted")
		}
	})

	t.Run("should reject a nil actor with Forbidden", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		if _, err := f.uc.Create(ctx, nil, "pub-1", 1, false); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("should reject durations outside 1..36", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		for _, months := range []int{0, -1, 37, 120} {
			_, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", months, false)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("months=%d: expected ErrInvalidArgument, got %v", months, err)
			}
		}
	})

	t.Run("should report NotFound for an unknown publication", func(t *testing.T) {
		f := newSubFixture()
		if _, err := f.uc.Create(ctx, newActiveUser("user-1"), "missing", 1, false); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should report NotFound for an unavailable publication", func(t *testing.T) {
		p := newPublication("pub-1")
		p.IsAvailable = false
		f := newSubFixture(p)
		if _, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 1, false); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should report NotFound for an invisible publication", func(t *testing.T) {
		p := newPublication("pub-1")
		p.IsVisible = false
		f := newSubFixture(p)
		if _, err := f.uc.Create(ctx, newAdmin("admin-1"), "pub-1", 1, false); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound even for admins, got %v", err)
		}
	})

	t.Run("should report Conflict when an active subscription exists", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		user := newActiveUser("user-1")
		if _, err := f.uc.Create(ctx, user, "pub-1", 1, false); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		_, err := f.uc.Create(ctx, user, "pub-1", 2, false)
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if n := f.subs.CountActive("user-1", "pub-1"); n != 1 {
			t.Errorf("expected exactly one active subscription, got %d", n)
		}
	})

	t.Run("should allow a new subscription after the previous one was cancelled", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		user := newActiveUser("user-1")
		first, err := f.uc.Create(ctx, user, "pub-1", 1, false)
		if err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		if err := f.uc.Cancel(ctx, user, first.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if _, err := f.uc.Create(ctx, user, "pub-1", 1, false); err != nil {
			t.Fatalf("expected re-subscription to succeed, got %v", err)
		}
	})

	t.Run("should map store uniqueness and serialization failures to Conflict", func(t *testing.T) {
		for _, storeErr := range []error{domain.ErrAlreadyExists, domain.ErrSerialization} {
			f := newSubFixture(newPublication("pub-1"))
			f.subs.InsertFunc = func(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
				return storeErr
			}
			_, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 1, false)
			if !errors.Is(err, domain.ErrConflict) {
				t.Errorf("store error %v: expected ErrConflict, got %v", storeErr, err)
			}
			if len(f.events.Published) != 0 {
				t.Error("expected no event for a failed create")
			}
		}
	})

	t.Run("should propagate unexpected storage errors", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		f.subs.FindActiveFunc = func(ctx context.Context, tx repository.Tx, userID, publicationID string) (*model.Subscription, error) {
			return nil, domain.ErrOperationFailed
		}
		_, err := f.uc.Create(ctx, newActiveUser("user-1"), "pub-1", 1, false)
		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("expected ErrOperationFailed, got %v", err)
		}
	})
}

func TestSubscriptionUseCase_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	f := newSubFixture(newPublication("pub-1"))
	user := newActiveUser("user-1")

	// hold both callers at the door so their duplicate checks overlap
	start := make(chan struct{})
	var mu sync.Mutex
	var successes, conflicts int

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			<-start
			_, err := f.uc.Create(ctx, user, "pub-1", 1, false)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				return err
			}
			return nil
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected 1 success and 1 conflict, got %d and %d", successes, conflicts)
	}
	if n := f.subs.CountActive("user-1", "pub-1"); n != 1 {
		t.Fatalf("expected exactly one active subscription, got %d", n)
	}
}

func TestSubscriptionUseCase_Cancel(t *testing.T) {
	ctx := context.Background()

	seed := func(f *subFixture, id, userID string, status model.SubscriptionStatus) {
		f.subs.Put(&model.Subscription{
			ID:            id,
			UserID:        userID,
			PublicationID: "pub-1",
			Status:        status,
			AutoRenew:     true,
			Price:         dec("10"),
			CreatedAt:     time.Now().UTC(),
		})
	}

	t.Run("should cancel an owned active subscription", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		seed(f, "sub-1", "user-1", model.SubscriptionStatusActive)

		if err := f.uc.Cancel(ctx, newActiveUser("user-1"), "sub-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := f.subs.Get("sub-1")
		if got.Status != model.SubscriptionStatusCancelled {
			t.Errorf("expected status cancelled, got %q", got.Status)
		}
		if got.AutoRenew {
			t.Error("expected auto_renew to be turned off")
		}
		if types := f.events.Types(); len(types) != 1 || types[0] != adapter.EventSubscriptionCancelled {
			t.Errorf("expected one cancelled event, got %v", types)
		}
	})

	t.Run("should report InvalidState on the second cancel", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		seed(f, "sub-1", "user-1", model.SubscriptionStatusActive)
		user := newActiveUser("user-1")

		if err := f.uc.Cancel(ctx, user, "sub-1"); err != nil {
			t.Fatalf("first cancel failed: %v", err)
		}
		if err := f.uc.Cancel(ctx, user, "sub-1"); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
		if f.subs.Calls.Update != 1 {
			t.Errorf("expected a single write, got %d", f.subs.Calls.Update)
		}
	})

	t.Run("should report InvalidState for an expired subscription", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		seed(f, "sub-1", "user-1", model.SubscriptionStatusExpired)
		if err := f.uc.Cancel(ctx, newActiveUser("user-1"), "sub-1"); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("should hide subscriptions owned by someone else", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		seed(f, "sub-1", "user-1", model.SubscriptionStatusActive)

		err := f.uc.Cancel(ctx, newActiveUser("user-2"), "sub-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if f.subs.Get("sub-1").Status != model.SubscriptionStatusActive {
			t.Error("expected the other user's subscription to stay active")
		}
	})

	t.Run("should report NotFound for an unknown id", func(t *testing.T) {
		f := newSubFixture()
		if err := f.uc.Cancel(ctx, newActiveUser("user-1"), "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject a deactivated actor with Forbidden", func(t *testing.T) {
		f := newSubFixture(newPublication("pub-1"))
		seed(f, "sub-1", "user-1", model.SubscriptionStatusActive)
		user := newActiveUser("user-1")
		user.IsActive = false

		if err := f.uc.Cancel(ctx, user, "sub-1"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestSubscriptionUseCase_ListMine(t *testing.T) {
	ctx := context.Background()
	f := newSubFixture()
	base := time.Now().UTC()
	for i, id := range []string{"old", "mid", "new"} {
		f.subs.Put(&model.Subscription{
			ID:        id,
			UserID:    "user-1",
			Status:    model.SubscriptionStatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	f.subs.Put(&model.Subscription{ID: "foreign", UserID: "user-2", CreatedAt: base})

	t.Run("should return only the caller's subscriptions newest first", func(t *testing.T) {
		got, err := f.uc.ListMine(ctx, newActiveUser("user-1"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 subscriptions, got %d", len(got))
		}
		if got[0].ID != "new" || got[2].ID != "old" {
			t.Errorf("expected newest first, got %s..%s", got[0].ID, got[2].ID)
		}
	})

	t.Run("should return an empty list for a user without subscriptions", func(t *testing.T) {
		got, err := f.uc.ListMine(ctx, newActiveUser("user-3"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %v", got)
		}
	})
}
