package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside one database transaction and passes
// the infra-defined handle (pgx.Tx for Postgres) to repositories via tx.
//
// Repositories accept a nil tx and then run against the pool. Any error
// returned by fn rolls the transaction back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
