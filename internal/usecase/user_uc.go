package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
var _ UserUseCase = (*userUC)(nil)

// RegisterInput carries a registration request. Password is plain text.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName *string
}

// ProfileUpdate is a partial update of the caller's own profile.
type ProfileUpdate struct {
	Username *string
	FullName *string
}

// StatusUpdate is an administrative change to another account.
type StatusUpdate struct {
	IsActive *bool
	Role     *model.UserRole
}

// LoginLimit bounds login attempts per login string.
type LoginLimit struct {
	Attempts int
	Window   time.Duration
}

// UserUseCase exposes account operations used by the HTTP layer.
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, login, password string) (string, error)
	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, actor *model.User, upd ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, actor *model.User, current, next string) error
	SetStatus(ctx context.Context, actor *model.User, userID string, upd StatusUpdate) (*model.User, error)
}

type userUC struct {
	users   repository.UserRepository
	tm      repository.TransactionManager
	hasher  adapter.PasswordHasher
	tokens  adapter.TokenIssuer
	limiter adapter.RateLimiter
	limit   LoginLimit
	log     *zerolog.Logger
	dev     bool
}

// NewUserUseCase wires account operations. limiter may be nil to disable
// login throttling.
func NewUserUseCase(
	users repository.UserRepository,
	tm repository.TransactionManager,
	hasher adapter.PasswordHasher,
	tokens adapter.TokenIssuer,
	limiter adapter.RateLimiter,
	limit LoginLimit,
	logger *zerolog.Logger,
	dev bool,
) *userUC {
	return &userUC{
		users:   users,
		tm:      tm,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		limit:   limit,
		log:     logging.OrNop(logger),
		dev:     dev,
	}
}

func (u *userUC) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := model.NewUser("", in.Email, in.Username, hash, in.FullName)
	if err != nil {
		return nil, err
	}

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		taken, err := u.users.ExistsByEmail(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("email already registered: %w", domain.ErrAlreadyExists)
		}
		taken, err = u.users.ExistsByUsername(ctx, tx, user.Username, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("username already taken: %w", domain.ErrAlreadyExists)
		}
		return u.users.Save(ctx, tx, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrSerialization) {
			err = domain.ErrAlreadyExists
		}
		return nil, err
	}

	metrics.IncUserRegistered()
	logging.With(ctx, u.log).Info().
		Str("user_id", user.ID).
		Str("email", logging.Redact(user.Email, u.dev)).
		Msg("user registered")
	return user, nil
}

// Login accepts either the email or the username and returns a bearer token.
// Unknown logins and wrong passwords are indistinguishable.
func (u *userUC) Login(ctx context.Context, login, password string) (string, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", domain.ErrUnauthorized
	}
	if u.limiter != nil && u.limit.Attempts > 0 {
		ok, err := u.limiter.Allow(ctx, LoginRateKey(login), u.limit.Attempts, u.limit.Window)
		if err != nil {
			// fail open: a cache outage must not lock everyone out
			logging.With(ctx, u.log).Warn().Err(err).Msg("login rate limiter unavailable")
		} else if !ok {
			metrics.IncLoginAttempt("limited")
			return "", domain.ErrRateLimited
		}
	}

	user, err := u.users.FindByLogin(ctx, repository.NoTX, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncLoginAttempt("failure")
			return "", domain.ErrUnauthorized
		}
		return "", err
	}
	if !u.hasher.Verify(password, user.PasswordHash) {
		metrics.IncLoginAttempt("failure")
		return "", domain.ErrUnauthorized
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	metrics.IncLoginAttempt("success")
	return token, nil
}

func LoginRateKey(login string) string {
	return "rate_limit:login:" + strings.ToLower(login)
}

func (u *userUC) Authenticate(ctx context.Context, token string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Authenticate")()

	userID, err := u.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) UpdateProfile(ctx context.Context, actor *model.User, upd ProfileUpdate) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.UpdateProfile")()

	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if upd.Username == nil && upd.FullName == nil {
		return nil, fmt.Errorf("no information submitted for update: %w", domain.ErrInvalidArgument)
	}

	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if upd.Username != nil {
			name := strings.TrimSpace(*upd.Username)
			if name == "" {
				return domain.ErrInvalidArgument
			}
			taken, err := u.users.ExistsByUsername(ctx, tx, name, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("username already taken: %w", domain.ErrAlreadyExists)
			}
			user.Username = name
		}
		if upd.FullName != nil {
			name := strings.TrimSpace(*upd.FullName)
			user.FullName = &name
		}
		if err := u.users.Save(ctx, tx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	if errors.Is(err, domain.ErrSerialization) {
		err = domain.ErrAlreadyExists
	}
	return out, err
}

func (u *userUC) ChangePassword(ctx context.Context, actor *model.User, current, next string) error {
	defer logging.TraceDuration(u.log, "UserUC.ChangePassword")()

	if err := requireActive(actor); err != nil {
		return err
	}
	if !u.hasher.Verify(current, actor.PasswordHash) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidArgument)
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := u.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		return u.users.Save(ctx, tx, user)
	})
}

// SetStatus lets an admin (de)activate an account or change its role.
// Admins cannot change their own status.
func (u *userUC) SetStatus(ctx context.Context, actor *model.User, userID string, upd StatusUpdate) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.SetStatus")()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if upd.IsActive == nil && upd.Role == nil {
		return nil, domain.ErrInvalidArgument
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if userID == actor.ID {
		return nil, fmt.Errorf("cannot change own status: %w", domain.ErrInvalidArgument)
	}

	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if upd.IsActive != nil {
			user.IsActive = *upd.IsActive
		}
		if upd.Role != nil {
			user.Role = *upd.Role
		}
		if err := u.users.Save(ctx, tx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().
		Str("target_user_id", out.ID).
		Bool("is_active", out.IsActive).
		Str("role", string(out.Role)).
		Msg("user status changed")
	return out, nil
}
