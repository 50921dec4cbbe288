package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/repository"
)

// txFunc runs with a transaction-bound repository bundle. Every write the
// function performs commits or rolls back as one unit.
type txFunc func(r *repository.Repos) error

// txRunner executes fn atomically. Services built against a live database use
// newTxRunner; tests substitute a runner that hands fn an in-memory bundle.
type txRunner func(ctx context.Context, fn txFunc) error

func newTxRunner(db *database.DB) txRunner {
	return func(ctx context.Context, fn txFunc) error {
		return db.WithTx(ctx, func(tx *sqlx.Tx) error {
			return fn(repository.NewRepos(tx))
		})
	}
}
