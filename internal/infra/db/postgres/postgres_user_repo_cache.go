package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
	"press-subscription/internal/infra/logging"
	"press-subscription/internal/infra/metrics"
	red "press-subscription/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches FindByID lookups (the per-request
// authentication path) in Redis with a bounded TTL. Every write drops the
// cached entry. Reads inside a transaction always go to the database.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logging.OrNop(logger),
	}
}

func userCacheKey(id string) string { return fmt.Sprintf("user:id:%s", id) }

// cachedUser mirrors model.User including the password hash, which the
// public JSON form omits.
type cachedUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"password_hash"`
	FullName     *string        `json:"full_name"`
	Role         model.UserRole `json:"role"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toCached(u *model.User) cachedUser {
	return cachedUser{
		ID: u.ID, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash,
		FullName: u.FullName, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt,
	}
}

func (c cachedUser) toModel() *model.User {
	return &model.User{
		ID: c.ID, Email: c.Email, Username: c.Username, PasswordHash: c.PasswordHash,
		FullName: c.FullName, Role: c.Role, IsActive: c.IsActive, CreatedAt: c.CreatedAt,
	}
}

// Save drops the entry before the write and again once the write is
// visible: after commit when called inside WithTx, immediately otherwise.
// A reader that re-cached the old row while the transaction was open is
// cleared by the second drop.
func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	d.invalidate(ctx, u.ID)
	if err := d.inner.Save(ctx, tx, u); err != nil {
		return err
	}
	id := u.ID
	afterCommit(ctx, func(ctx context.Context) { d.invalidate(ctx, id) })
	return nil
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if tx != nil {
		metrics.IncCacheRequest("user", "bypass")
		return d.inner.FindByID(ctx, tx, id)
	}

	key := userCacheKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var cu cachedUser
		if json.Unmarshal([]byte(val), &cu) == nil {
			metrics.IncCacheRequest("user", "hit")
			return cu.toModel(), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(toCached(user)); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("user cache write failed")
		}
	}
	return user, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) FindByLogin(ctx context.Context, tx repository.Tx, login string) (*model.User, error) {
	return d.inner.FindByLogin(ctx, tx, login)
}

func (d *userRepoCacheDecorator) ExistsByEmail(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	return d.inner.ExistsByEmail(ctx, tx, email)
}

func (d *userRepoCacheDecorator) ExistsByUsername(ctx context.Context, tx repository.Tx, username, excludeID string) (bool, error) {
	return d.inner.ExistsByUsername(ctx, tx, username, excludeID)
}

func (d *userRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, userCacheKey(id)); err != nil {
		d.log.Warn().Err(err).Str("user_id", id).Msg("user cache invalidation failed")
	}
}
