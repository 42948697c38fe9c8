//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/adapter"
	"press-subscription/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newActiveUser(id string) *model.User {
	return &model.User{
		ID:           id,
		Email:        id + "@example.com",
		Username:     id,
		PasswordHash: "hashed:Secret123",
		Role:         model.UserRoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func newAdmin(id string) *model.User {
	u := newActiveUser(id)
	u.Role = model.UserRoleAdmin
	return u
}

func newPublication(id string) *model.Publication {
	return &model.Publication{
		ID:           id,
		Title:        "Weekly " + id,
		Type:         model.PublicationTypeMagazine,
		PriceMonthly: dec("10"),
		PriceYearly:  dec("100"),
		IsVisible:    true,
		IsAvailable:  true,
		CreatedAt:    time.Now().UTC(),
	}
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	SaveFunc     func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(seed ...*model.User) *MockUserRepo {
	m := &MockUserRepo{users: make(map[string]*model.User)}
	for _, u := range seed {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.users {
		if id != u.ID && (other.Email == u.Email || other.Username == u.Username) {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByLogin(ctx context.Context, tx repository.Tx, login string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == login || u.Username == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) ExistsByEmail(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepo) ExistsByUsername(ctx context.Context, tx repository.Tx, username, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if id != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// ---- Mock PublicationRepository ----

type MockPublicationRepo struct {
	mu   sync.Mutex
	pubs map[string]*model.Publication

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Publication, error)
	// LastFilter captures the most recent List call.
	LastFilter repository.PublicationFilter
}

var _ repository.PublicationRepository = (*MockPublicationRepo)(nil)

func NewMockPublicationRepo(seed ...*model.Publication) *MockPublicationRepo {
	m := &MockPublicationRepo{pubs: make(map[string]*model.Publication)}
	for _, p := range seed {
		cp := *p
		m.pubs[p.ID] = &cp
	}
	return m
}

func (m *MockPublicationRepo) Save(ctx context.Context, tx repository.Tx, p *model.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.pubs[p.ID] = &cp
	return nil
}

func (m *MockPublicationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Publication, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pubs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPublicationRepo) List(ctx context.Context, tx repository.Tx, f repository.PublicationFilter) ([]*model.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = f
	var out []*model.Publication
	for _, p := range m.pubs {
		if !p.IsAvailable || (f.OnlyVisible && !p.IsVisible) {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockPublicationRepo) Get(id string) *model.Publication {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pubs[id]
}

// ---- Mock SubscriptionRepository ----

// MockSubscriptionRepo enforces the one-active-per-(user, publication) rule
// atomically on Insert, like the partial unique index does.
type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription

	InsertFunc     func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindActiveFunc func(ctx context.Context, tx repository.Tx, userID, publicationID string) (*model.Subscription, error)
	UpdateFunc     func(ctx context.Context, tx repository.Tx, s *model.Subscription) error

	Calls struct {
		Insert int
		Update int
	}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	m.Calls.Insert++
	m.mu.Unlock()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == model.SubscriptionStatusActive {
		for _, o := range m.subs {
			if o.Status == model.SubscriptionStatusActive && o.UserID == s.UserID && o.PublicationID == s.PublicationID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindActive(ctx context.Context, tx repository.Tx, userID, publicationID string) (*model.Subscription, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, tx, userID, publicationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && s.UserID == userID && s.PublicationID == publicationID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockSubscriptionRepo) FindOwned(ctx context.Context, tx repository.Tx, id, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	m.Calls.Update++
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.subs[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = s.Status
	cur.AutoRenew = s.AutoRenew
	return nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.SubscriptionStatus]int)
	for _, s := range m.subs {
		out[s.Status]++
	}
	return out, nil
}

// Put stores s directly, bypassing uniqueness checks.
func (m *MockSubscriptionRepo) Put(s *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
}

func (m *MockSubscriptionRepo) Get(id string) *model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id]
}

func (m *MockSubscriptionRepo) CountActive(userID, publicationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && s.UserID == userID && s.PublicationID == publicationID {
			n++
		}
	}
	return n
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error

	mu   sync.Mutex
	Opts []pgx.TxOptions
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.Opts = append(m.Opts, txOpt)
	m.mu.Unlock()
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock PasswordHasher ----

type MockHasher struct{}

var _ adapter.PasswordHasher = MockHasher{}

func (MockHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (MockHasher) Verify(p, hash string) bool    { return hash == "hashed:"+p }

// ---- Mock TokenIssuer ----

type MockTokens struct{}

var _ adapter.TokenIssuer = MockTokens{}

func (MockTokens) Issue(userID string) (string, error) { return "token:" + userID, nil }

func (MockTokens) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok || id == "" {
		return "", errors.New("bad token")
	}
	return id, nil
}

// ---- Mock RateLimiter ----

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int

	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ adapter.RateLimiter = (*MockLimiter)(nil)

func NewMockLimiter() *MockLimiter { return &MockLimiter{counts: make(map[string]int)} }

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

// ---- Mock EventPublisher ----

type MockEvents struct {
	mu        sync.Mutex
	Published []adapter.SubscriptionEvent

	PublishFunc func(ctx context.Context, ev adapter.SubscriptionEvent) error
}

var _ adapter.EventPublisher = (*MockEvents)(nil)

func (m *MockEvents) Publish(ctx context.Context, ev adapter.SubscriptionEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, ev)
	return nil
}

func (m *MockEvents) Close() error { return nil }

func (m *MockEvents) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Published))
	for _, ev := range m.Published {
		out = append(out, ev.Type)
	}
	return out
}
