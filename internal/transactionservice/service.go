// Package transactionservice implements the ledger transaction engine.
//
// Every operation runs inside one unit of work. Both accounts are re-read under row locks
// before validation, and the written entries are checked by ledgerguard before commit.
// Any failure rolls the whole unit back.
package transactionservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/internal/ledgerguard"
	"github.com/go-petr/fx-ledger/internal/store"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/go-petr/fx-ledger/pkg/moneypkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store runs fn inside one atomic unit of work.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type Store interface {
	ExecTx(ctx context.Context, fn func(store.Queries) error) error
}

// Recorder observes the outcome of every engine operation.
type Recorder interface {
	Observe(transactionType string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, error, time.Duration) {}

// Engine facilitates transfer and exchange logic.
type Engine struct {
	store    Store
	recorder Recorder
	now      func() time.Time
}

// New returns the transaction engine. A nil recorder disables observation.
func New(s Store, r Recorder) *Engine {
	if r == nil {
		r = nopRecorder{}
	}

	return &Engine{
		store:    s,
		recorder: r,
		now:      time.Now,
	}
}

// movement is the validated shape shared by transfers and exchanges.
type movement struct {
	userID        int64
	txType        string
	fromAccountID int64
	toAccountID   int64
	debit         decimal.Decimal // taken from the source
	credit        decimal.Decimal // given to the destination
	rate          decimal.NullDecimal
	description   string
}

// Transfer moves amount between two accounts of the same currency.
//
// The acting user must own at least one of the accounts, so money can be sent to other users.
func (e *Engine) Transfer(ctx context.Context, userID int64, arg domain.TransferParams) (res domain.TransactionResult, err error) {
	defer e.observe(domain.TransactionTypeTransfer, &err)()

	l := zerolog.Ctx(ctx)

	if err := validAmount(arg.Amount); err != nil {
		l.Info().Err(err).Str("amount", arg.Amount.String()).Msg("transfer rejected")
		return res, err
	}

	if arg.FromAccountID == arg.ToAccountID {
		l.Info().Int64("account_id", arg.FromAccountID).Msg("transfer rejected")
		return res, domain.ErrSameAccount
	}

	description := arg.Description
	if description == "" {
		description = domain.DefaultTransferDescription
	}

	return e.execute(ctx, movement{
		userID:        userID,
		txType:        domain.TransactionTypeTransfer,
		fromAccountID: arg.FromAccountID,
		toAccountID:   arg.ToAccountID,
		debit:         arg.Amount,
		credit:        arg.Amount,
		description:   description,
	})
}

// Exchange converts sourceAmount from one account of the user into another account of the user
// held in a different currency.
//
// The converted amount is the supplied target amount, or sourceAmount × exchangeRate when it is
// absent, rounded to cents half away from zero.
func (e *Engine) Exchange(ctx context.Context, userID int64, arg domain.ExchangeParams) (res domain.TransactionResult, err error) {
	defer e.observe(domain.TransactionTypeExchange, &err)()

	l := zerolog.Ctx(ctx)

	converted, err := convertedAmount(arg)
	if err != nil {
		l.Info().Err(err).
			Str("source_amount", arg.SourceAmount.String()).
			Str("exchange_rate", arg.ExchangeRate.String()).
			Msg("exchange rejected")

		return res, err
	}

	if arg.FromAccountID == arg.ToAccountID {
		l.Info().Int64("account_id", arg.FromAccountID).Msg("exchange rejected")
		return res, domain.ErrSameAccount
	}

	description := arg.Description
	if description == "" {
		description = domain.DefaultExchangeDescription
	}

	return e.execute(ctx, movement{
		userID:        userID,
		txType:        domain.TransactionTypeExchange,
		fromAccountID: arg.FromAccountID,
		toAccountID:   arg.ToAccountID,
		debit:         arg.SourceAmount,
		credit:        converted,
		rate:          decimal.NewNullDecimal(arg.ExchangeRate),
		description:   description,
	})
}

func (e *Engine) observe(txType string, err *error) func() {
	start := e.now()

	return func() {
		e.recorder.Observe(txType, *err, e.now().Sub(start))
	}
}

func validAmount(amount decimal.Decimal) error {
	if !moneypkg.ValidAmount(amount) {
		return domain.ErrInvalidAmount
	}

	return nil
}

func convertedAmount(arg domain.ExchangeParams) (decimal.Decimal, error) {
	if err := validAmount(arg.SourceAmount); err != nil {
		return decimal.Zero, err
	}

	if !moneypkg.ValidRate(arg.ExchangeRate) {
		return decimal.Zero, domain.ErrInvalidRate
	}

	converted := arg.SourceAmount.Mul(arg.ExchangeRate)

	if arg.TargetAmount.Valid {
		if !arg.TargetAmount.Decimal.IsPositive() {
			return decimal.Zero, domain.ErrInvalidTargetAmount
		}

		converted = arg.TargetAmount.Decimal
	}

	converted = moneypkg.Round2(converted)
	if !converted.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: converted amount rounds to zero", domain.ErrInvalidAmount)
	}

	if converted.GreaterThan(moneypkg.MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: converted amount exceeds %s", domain.ErrInvalidAmount, moneypkg.MaxAmount)
	}

	return converted, nil
}

func (e *Engine) execute(ctx context.Context, m movement) (domain.TransactionResult, error) {
	l := zerolog.Ctx(ctx)

	var res domain.TransactionResult

	err := e.store.ExecTx(ctx, func(q store.Queries) error {
		from, to, err := lockPair(ctx, q, m.fromAccountID, m.toAccountID)
		if err != nil {
			return err
		}

		if err := validate(m, from, to); err != nil {
			l.Info().Err(err).
				Int64("from_account_id", m.fromAccountID).
				Int64("to_account_id", m.toAccountID).
				Msgf("%s rejected", m.txType)

			return err
		}

		tx, err := q.CreateTransaction(ctx, domain.CreateTransactionParams{
			PublicID:        uuid.New(),
			OwnerID:         m.userID,
			Type:            m.txType,
			Description:     m.description,
			Amount:          m.debit,
			Currency:        from.Currency,
			FromAccountID:   from.ID,
			ToAccountID:     to.ID,
			ExchangeRate:    m.rate,
			ConvertedAmount: convertedColumn(m),
			Status:          domain.StatusCompleted,
		})
		if err != nil {
			return err
		}

		outNote, inNote := entryNotes(m, from, to)

		if _, err := q.CreateEntry(ctx, domain.CreateEntryParams{
			TransactionID: tx.ID,
			AccountID:     from.ID,
			Amount:        m.debit.Neg(),
			Type:          domain.EntryTypeCredit,
			Description:   outNote,
		}); err != nil {
			return err
		}

		if _, err := q.CreateEntry(ctx, domain.CreateEntryParams{
			TransactionID: tx.ID,
			AccountID:     to.ID,
			Amount:        m.credit,
			Type:          domain.EntryTypeDebit,
			Description:   inNote,
		}); err != nil {
			return err
		}

		if err := applyBalances(ctx, q, from.ID, m.debit.Neg(), to.ID, m.credit); err != nil {
			return err
		}

		entries, err := q.ListEntries(ctx, tx.ID)
		if err != nil {
			return err
		}

		if err := ledgerguard.Check(tx.Type, entries); err != nil {
			l.Error().Err(err).Int64("transaction_id", tx.ID).Send()
			return err
		}

		msg, err := completedMessage(tx)
		if err != nil {
			l.Error().Err(err).Int64("transaction_id", tx.ID).Msg("encode outbox event")
			return errorspkg.ErrInternal
		}

		if err := q.CreateOutboxMessage(ctx, msg); err != nil {
			return err
		}

		res = domain.TransactionResult{
			ID:              tx.ID,
			PublicID:        tx.PublicID,
			CreatedAt:       tx.CreatedAt,
			ConvertedAmount: tx.ConvertedAmount,
		}

		return nil
	})
	if err != nil {
		return domain.TransactionResult{}, err
	}

	l.Info().
		Str("transaction_type", m.txType).
		Int64("transaction_id", res.ID).
		Str("public_id", res.PublicID.String()).
		Msg("transaction committed")

	return res, nil
}

// lockPair locks both accounts in ascending id order and returns them as (from, to).
func lockPair(ctx context.Context, q store.Queries, fromID, toID int64) (from, to domain.Account, err error) {
	accounts, err := q.LockAccounts(ctx, fromID, toID)
	if err != nil {
		return from, to, err
	}

	var foundFrom, foundTo bool

	for _, a := range accounts {
		switch a.ID {
		case fromID:
			from, foundFrom = a, true
		case toID:
			to, foundTo = a, true
		}
	}

	if !foundFrom || !foundTo {
		return from, to, domain.ErrAccountNotFound
	}

	return from, to, nil
}

// validate applies the checks in fail-fast order: ownership, lock state, currency, funds.
func validate(m movement, from, to domain.Account) error {
	switch m.txType {
	case domain.TransactionTypeExchange:
		if from.OwnerID != m.userID || to.OwnerID != m.userID {
			return domain.ErrNotOwnerOfBoth
		}

		if from.IsLocked || to.IsLocked {
			return domain.ErrAccountLocked
		}

		if from.Currency == to.Currency {
			return domain.ErrExchangeCurrency
		}
	default:
		if from.OwnerID != m.userID && to.OwnerID != m.userID {
			return domain.ErrNotOwnerOfEither
		}

		if from.IsLocked {
			return domain.ErrAccountLocked
		}

		if from.Currency != to.Currency {
			return domain.ErrTransferCurrency
		}
	}

	if from.Balance.LessThan(m.debit) {
		return domain.ErrInsufficientFunds
	}

	return nil
}

func convertedColumn(m movement) decimal.NullDecimal {
	if m.txType == domain.TransactionTypeExchange {
		return decimal.NewNullDecimal(m.credit)
	}

	return decimal.NullDecimal{}
}

func entryNotes(m movement, from, to domain.Account) (out, in string) {
	if m.txType == domain.TransactionTypeExchange {
		note := fmt.Sprintf("Exchange %s to %s", from.Currency, to.Currency)
		return note, note
	}

	return domain.TransferOutDescription, domain.TransferInDescription
}

// applyBalances updates both balances in ascending id order.
func applyBalances(ctx context.Context, q store.Queries, fromID int64, fromDelta decimal.Decimal, toID int64, toDelta decimal.Decimal) error {
	type change struct {
		id    int64
		delta decimal.Decimal
	}

	changes := [2]change{{fromID, fromDelta}, {toID, toDelta}}
	if toID < fromID {
		changes[0], changes[1] = changes[1], changes[0]
	}

	for _, c := range changes {
		if _, err := q.AddBalance(ctx, c.id, c.delta); err != nil {
			return err
		}
	}

	return nil
}

func completedMessage(tx domain.Transaction) (domain.OutboxMessage, error) {
	event := domain.TransactionCompletedEvent{
		ID:            tx.ID,
		PublicID:      tx.PublicID,
		OwnerID:       tx.OwnerID,
		Type:          tx.Type,
		Amount:        tx.Amount.StringFixed(moneypkg.Places),
		Currency:      tx.Currency,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		CreatedAt:     tx.CreatedAt,
	}

	if tx.ExchangeRate.Valid {
		event.ExchangeRate = tx.ExchangeRate.Decimal.String()
	}

	if tx.ConvertedAmount.Valid {
		event.ConvertedAmount = tx.ConvertedAmount.Decimal.StringFixed(moneypkg.Places)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return domain.OutboxMessage{}, err
	}

	return domain.OutboxMessage{
		ID:          uuid.New(),
		AggregateID: tx.PublicID,
		EventType:   domain.EventTransactionCompleted,
		Payload:     payload,
		Status:      domain.OutboxStatusPending,
	}, nil
}
