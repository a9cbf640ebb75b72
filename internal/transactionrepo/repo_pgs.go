// Package transactionrepo manages repository layer of ledger transactions.
package transactionrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const transactionColumns = `id, public_id, owner_id, transaction_type, description, amount, currency,
    from_account_id, to_account_id, exchange_rate, converted_amount, status, created_at`

func scanTransaction(row *sql.Row, t *domain.Transaction) error {
	return row.Scan(
		&t.ID,
		&t.PublicID,
		&t.OwnerID,
		&t.Type,
		&t.Description,
		&t.Amount,
		&t.Currency,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.ExchangeRate,
		&t.ConvertedAmount,
		&t.Status,
		&t.CreatedAt,
	)
}

const createQuery = `
INSERT INTO
    transactions (public_id, owner_id, transaction_type, description, amount, currency,
        from_account_id, to_account_id, exchange_rate, converted_amount, status)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + transactionColumns

// Create inserts the transaction row and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.PublicID,
		arg.OwnerID,
		arg.Type,
		arg.Description,
		arg.Amount,
		arg.Currency,
		arg.FromAccountID,
		arg.ToAccountID,
		arg.ExchangeRate,
		arg.ConvertedAmount,
		arg.Status,
	)

	var t domain.Transaction

	if err := scanTransaction(row, &t); err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		switch dbpkg.ConstraintName(err) {
		case "transactions_from_account_id_fkey", "transactions_to_account_id_fkey":
			return t, domain.ErrInvalidReference
		case "transactions_amount_check", "transactions_converted_amount_check":
			return t, domain.ErrInvalidAmount
		}

		if dbpkg.IsOutOfRange(err) {
			return t, domain.ErrInvalidAmount
		}

		if dbpkg.IsTransient(err) {
			return t, domain.ErrEngineUnavailable
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}
