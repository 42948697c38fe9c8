package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/ports/repository"
)

const (
	uniqueViolation     = "23505"
	invalidTextEncoding = "22P02" // e.g. a malformed uuid
)

// errRow defers an executor resolution error to Scan.
type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }

func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgconn.CommandTag, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Exec(ctx, q, args...)
}

func pickRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) pgx.Row {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return errRow{err: err}
	}
	return ex.QueryRow(ctx, q, args...)
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgx.Rows, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Query(ctx, q, args...)
}

// mapWriteErr translates driver errors from INSERT/UPDATE into domain errors.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation:
			return domain.ErrAlreadyExists
		case isSerializationFailure(err):
			return domain.ErrSerialization
		}
	}
	return domain.ErrOperationFailed
}

// mapReadErr translates driver errors from SELECTs into domain errors.
func mapReadErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
		return err
	case isSerializationFailure(err):
		return domain.ErrSerialization
	case isPgCode(err, invalidTextEncoding):
		return domain.ErrNotFound
	default:
		return domain.ErrReadDatabaseRow
	}
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
