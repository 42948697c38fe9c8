//go:build !integration

package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
	red "press-subscription/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
type mockInnerUserRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)

	mu    sync.Mutex
	finds int
}

var _ repository.UserRepository = (*mockInnerUserRepo)(nil)

func (m *mockInnerUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc == nil {
		return nil
	}
	return m.SaveFunc(ctx, tx, u)
}

func (m *mockInnerUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	m.finds++
	m.mu.Unlock()
	if m.FindByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.FindByIDFunc(ctx, tx, id)
}

func (m *mockInnerUserRepo) FindByLogin(ctx context.Context, tx repository.Tx, login string) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockInnerUserRepo) ExistsByEmail(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	return false, nil
}

func (m *mockInnerUserRepo) ExistsByUsername(ctx context.Context, tx repository.Tx, username, excludeID string) (bool, error) {
	return false, nil
}

func (m *mockInnerUserRepo) Finds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds
}

// memRedis is an in-memory stand-in for the Redis client wrapper.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	Dels []string

	GetErr error
}

var _ red.RedisClient = (*memRedis)(nil)

func newMemRedis() *memRedis { return &memRedis{data: make(map[string]string)} }

func (m *memRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		m.Dels = append(m.Dels, k)
	}
	return nil
}

func (m *memRedis) Ping(ctx context.Context) error { return nil }
func (m *memRedis) Close() error                   { return nil }

func (m *memRedis) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}
