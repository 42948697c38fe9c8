package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id::text, email, username, password_hash, full_name, role, is_active, created_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, username, password_hash, full_name, role, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  email=$2, username=$3, password_hash=$4, full_name=$5, role=$6, is_active=$7;`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FullName, string(u.Role), u.IsActive, u.CreatedAt)
	return mapWriteErr(err)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	return scanUser(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresUserRepo) FindByLogin(ctx context.Context, tx repository.Tx, login string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1 OR username=$1 LIMIT 1;`
	return scanUser(pickRow(ctx, r.pool, tx, q, login))
}

func (r *PostgresUserRepo) ExistsByEmail(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	var ok bool
	err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1);`, email).Scan(&ok)
	return ok, mapReadErr(err)
}

func (r *PostgresUserRepo) ExistsByUsername(ctx context.Context, tx repository.Tx, username, excludeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1 AND ($2 = '' OR id::text <> $2));`
	var ok bool
	err := pickRow(ctx, r.pool, tx, q, username, excludeID).Scan(&ok)
	return ok, mapReadErr(err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	u.Role = model.UserRole(role)
	return &u, nil
}
