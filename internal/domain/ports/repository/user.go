package repository

import (
	"context"

	"press-subscription/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// FindByLogin matches either email or username.
	FindByLogin(ctx context.Context, tx Tx, login string) (*model.User, error)
	ExistsByEmail(ctx context.Context, tx Tx, email string) (bool, error)
	// ExistsByUsername ignores the user with excludeID ("" to check all users).
	ExistsByUsername(ctx context.Context, tx Tx, username, excludeID string) (bool, error)
}
