// Package entryrepo manages repository layer of ledger entries.
package entryrepo

import (
	"context"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

func storeErr(err error) error {
	if dbpkg.IsTransient(err) {
		return domain.ErrEngineUnavailable
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    ledger_entries (transaction_id, account_id, amount, entry_type, description)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, transaction_id, account_id, amount, entry_type, description, created_at
`

// Create appends the entry to the log and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.TransactionID,
		arg.AccountID,
		arg.Amount,
		arg.Type,
		arg.Description,
	)

	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.TransactionID,
		&e.AccountID,
		&e.Amount,
		&e.Type,
		&e.Description,
		&e.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		switch dbpkg.ConstraintName(err) {
		case "ledger_entries_account_id_fkey", "ledger_entries_transaction_id_fkey":
			return e, domain.ErrInvalidReference
		}

		if dbpkg.IsOutOfRange(err) {
			return e, domain.ErrInvalidAmount
		}

		return e, storeErr(err)
	}

	return e, nil
}

const listByTransactionQuery = `
SELECT id, transaction_id, account_id, amount, entry_type, description, created_at
FROM ledger_entries
WHERE transaction_id = $1
ORDER BY id
`

// ListByTransaction returns the persisted entries of the given transaction.
func (r *RepoPGS) ListByTransaction(ctx context.Context, transactionID int64) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByTransactionQuery, transactionID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(
			&e.ID,
			&e.TransactionID,
			&e.AccountID,
			&e.Amount,
			&e.Type,
			&e.Description,
			&e.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, storeErr(err)
		}

		items = append(items, e)
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
