// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, public_id, owner_id, account_name, account_type, currency, balance, is_locked, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner, a *domain.Account) error {
	return row.Scan(
		&a.ID,
		&a.PublicID,
		&a.OwnerID,
		&a.Name,
		&a.Type,
		&a.Currency,
		&a.Balance,
		&a.IsLocked,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// storeErr maps failures that are not specific to a statement.
func storeErr(err error) error {
	if dbpkg.IsTransient(err) {
		return domain.ErrEngineUnavailable
	}

	return errorspkg.ErrInternal
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1, updated_at = now()
WHERE id = $2
RETURNING ` + accountColumns

// AddBalance applies the signed delta to the account's balance and returns the changed account.
func (r *RepoPGS) AddBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, delta, id), &a)
	if err != nil {
		l.Error().Err(err).Send()

		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		if dbpkg.ConstraintName(err) == "accounts_balance_check" {
			return a, domain.ErrInsufficientFunds
		}

		if dbpkg.IsOutOfRange(err) {
			return a, domain.ErrInvalidAmount
		}

		return a, storeErr(err)
	}

	return a, nil
}

const createQuery = `
INSERT INTO
    accounts (public_id, owner_id, account_name, account_type, currency, balance, is_locked)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + accountColumns

// Create provisions the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	row := r.db.QueryRowContext(ctx, createQuery,
		uuid.New(),
		arg.OwnerID,
		arg.Name,
		arg.Type,
		arg.Currency,
		arg.Balance,
		arg.IsLocked,
	)

	if err := scanAccount(row, &a); err != nil {
		l.Error().Err(err).Send()

		if dbpkg.ConstraintName(err) == "accounts_balance_check" || dbpkg.IsOutOfRange(err) {
			return a, domain.ErrInvalidAmount
		}

		return a, storeErr(err)
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	if err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id), &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, storeErr(err)
	}

	return a, nil
}

const getForOwnerQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1 AND owner_id = $2
`

// GetForOwner returns the account with the given id if it belongs to the owner.
func (r *RepoPGS) GetForOwner(ctx context.Context, id, ownerID int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	if err := scanAccount(r.db.QueryRowContext(ctx, getForOwnerQuery, id, ownerID), &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, storeErr(err)
	}

	return a, nil
}

const listByOwnerQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE owner_id = $1
ORDER BY account_type, currency
`

// ListByOwner returns all accounts of the given user.
func (r *RepoPGS) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	return r.list(ctx, listByOwnerQuery, ownerID)
}

const lockForUpdateQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE
`

// LockForUpdate reads the accounts with the given ids and holds their row locks until the
// enclosing transaction ends. Locks are taken in ascending id order.
// Ids that do not resolve are simply missing from the result.
func (r *RepoPGS) LockForUpdate(ctx context.Context, ids ...int64) ([]domain.Account, error) {
	return r.list(ctx, lockForUpdateQuery, pq.Array(ids))
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...interface{}) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := scanAccount(rows, &a); err != nil {
			l.Error().Err(err).Send()
			return nil, storeErr(err)
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}

	return items, nil
}
