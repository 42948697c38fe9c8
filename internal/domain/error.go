package domain

import "errors"

var (
	// Lifecycle and access errors surfaced to callers
	ErrNotFound        = errors.New("entity not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("active subscription already exists")
	ErrInvalidState    = errors.New("only active subscriptions can be cancelled")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrRateLimited     = errors.New("too many requests")

	// Storage errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrSerialization      = errors.New("concurrent update detected")
)
