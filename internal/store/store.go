// Package store runs ledger writes inside one database transaction.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/fx-ledger/internal/accountrepo"
	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/internal/entryrepo"
	"github.com/go-petr/fx-ledger/internal/outboxrepo"
	"github.com/go-petr/fx-ledger/internal/transactionrepo"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Queries provides data access bound to one unit of work.
//
//go:generate mockgen -source store.go -destination store_mock.go -package store
type Queries interface {
	// LockAccounts reads the accounts and holds their row locks until the unit ends.
	// Ids that do not resolve are missing from the result.
	LockAccounts(ctx context.Context, ids ...int64) ([]domain.Account, error)
	AddBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (domain.Account, error)
	CreateTransaction(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	CreateEntry(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	ListEntries(ctx context.Context, transactionID int64) ([]domain.Entry, error)
	CreateOutboxMessage(ctx context.Context, msg domain.OutboxMessage) error
}

// SQLStore executes units of work against postgres.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ExecTx executes fn within a database transaction.
//
// The transaction is committed when fn returns nil and rolled back otherwise.
// Failures to begin or commit are reported as domain.ErrEngineUnavailable when retrying may help.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(Queries) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		l.Error().Err(err).Msg("begin transaction")
		return classify(err)
	}

	// No-op after a successful commit; runs on error returns and panics in fn.
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			l.Error().Err(rbErr).Msg("rollback transaction")
		}
	}()

	if err := fn(newQueries(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Msg("commit transaction")
		return classify(err)
	}

	return nil
}

func classify(err error) error {
	if dbpkg.IsTransient(err) {
		return domain.ErrEngineUnavailable
	}

	return errorspkg.ErrInternal
}

type txQueries struct {
	accounts     *accountrepo.RepoPGS
	entries      *entryrepo.RepoPGS
	transactions *transactionrepo.RepoPGS
	outbox       *outboxrepo.RepoPGS
}

func newQueries(tx dbpkg.SQLInterface) *txQueries {
	return &txQueries{
		accounts:     accountrepo.NewRepoPGS(tx),
		entries:      entryrepo.NewRepoPGS(tx),
		transactions: transactionrepo.NewRepoPGS(tx),
		outbox:       outboxrepo.NewRepoPGS(tx),
	}
}

func (q *txQueries) LockAccounts(ctx context.Context, ids ...int64) ([]domain.Account, error) {
	return q.accounts.LockForUpdate(ctx, ids...)
}

func (q *txQueries) AddBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (domain.Account, error) {
	return q.accounts.AddBalance(ctx, accountID, delta)
}

func (q *txQueries) CreateTransaction(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	return q.transactions.Create(ctx, arg)
}

func (q *txQueries) CreateEntry(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	return q.entries.Create(ctx, arg)
}

func (q *txQueries) ListEntries(ctx context.Context, transactionID int64) ([]domain.Entry, error) {
	return q.entries.ListByTransaction(ctx, transactionID)
}

func (q *txQueries) CreateOutboxMessage(ctx context.Context, msg domain.OutboxMessage) error {
	return q.outbox.Create(ctx, msg)
}
