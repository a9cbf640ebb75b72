package transactionservice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/internal/store"
	"github.com/shopspring/decimal"
)

var errInjected = errors.New("injected failure")

type memState struct {
	accounts     map[int64]domain.Account
	transactions []domain.Transaction
	entries      []domain.Entry
	outbox       []domain.OutboxMessage
	lastID       int64
}

func (s memState) clone() memState {
	c := memState{
		accounts:     make(map[int64]domain.Account, len(s.accounts)),
		transactions: append([]domain.Transaction(nil), s.transactions...),
		entries:      append([]domain.Entry(nil), s.entries...),
		outbox:       append([]domain.OutboxMessage(nil), s.outbox...),
		lastID:       s.lastID,
	}

	for id, a := range s.accounts {
		c.accounts[id] = a
	}

	return c
}

// memStore serializes units with a mutex and discards the working copy of a failed unit,
// the way row locks and rollback behave in postgres.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failOn names a Queries method that returns errInjected.
	failOn string
	// tamper may rewrite entries before they are stored.
	tamper func(*domain.CreateEntryParams)
}

func newMemStore(accounts ...domain.Account) *memStore {
	s := &memStore{state: memState{accounts: map[int64]domain.Account{}}}
	for _, a := range accounts {
		s.state.accounts[a.ID] = a
	}

	return s
}

func (s *memStore) ExecTx(ctx context.Context, fn func(store.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memQueries{store: s, state: &work}); err != nil {
		return err
	}

	s.state = work

	return nil
}

func (s *memStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.accounts[id].Balance
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.clone()
}

type memQueries struct {
	store *memStore
	state *memState
}

func (q *memQueries) fail(method string) error {
	if q.store.failOn == method {
		return errInjected
	}

	return nil
}

func (q *memQueries) LockAccounts(_ context.Context, ids ...int64) ([]domain.Account, error) {
	if err := q.fail("LockAccounts"); err != nil {
		return nil, err
	}

	items := []domain.Account{}

	for _, id := range ids {
		if a, ok := q.state.accounts[id]; ok {
			items = append(items, a)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

func (q *memQueries) AddBalance(_ context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	if err := q.fail("AddBalance"); err != nil {
		return domain.Account{}, err
	}

	a, ok := q.state.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	a.Balance = a.Balance.Add(delta)
	if a.Balance.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	a.UpdatedAt = time.Now()
	q.state.accounts[id] = a

	return a, nil
}

func (q *memQueries) CreateTransaction(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	if err := q.fail("CreateTransaction"); err != nil {
		return domain.Transaction{}, err
	}

	q.state.lastID++

	tx := domain.Transaction{
		ID:              q.state.lastID,
		PublicID:        arg.PublicID,
		OwnerID:         arg.OwnerID,
		Type:            arg.Type,
		Description:     arg.Description,
		Amount:          arg.Amount,
		Currency:        arg.Currency,
		FromAccountID:   arg.FromAccountID,
		ToAccountID:     arg.ToAccountID,
		ExchangeRate:    arg.ExchangeRate,
		ConvertedAmount: arg.ConvertedAmount,
		Status:          arg.Status,
		CreatedAt:       time.Now(),
	}
	q.state.transactions = append(q.state.transactions, tx)

	return tx, nil
}

func (q *memQueries) CreateEntry(_ context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	if err := q.fail("CreateEntry"); err != nil {
		return domain.Entry{}, err
	}

	if q.store.tamper != nil {
		q.store.tamper(&arg)
	}

	q.state.lastID++

	e := domain.Entry{
		ID:            q.state.lastID,
		TransactionID: arg.TransactionID,
		AccountID:     arg.AccountID,
		Amount:        arg.Amount,
		Type:          arg.Type,
		Description:   arg.Description,
		CreatedAt:     time.Now(),
	}
	q.state.entries = append(q.state.entries, e)

	return e, nil
}

func (q *memQueries) ListEntries(_ context.Context, transactionID int64) ([]domain.Entry, error) {
	if err := q.fail("ListEntries"); err != nil {
		return nil, err
	}

	items := []domain.Entry{}

	for _, e := range q.state.entries {
		if e.TransactionID == transactionID {
			items = append(items, e)
		}
	}

	return items, nil
}

func (q *memQueries) CreateOutboxMessage(_ context.Context, msg domain.OutboxMessage) error {
	if err := q.fail("CreateOutboxMessage"); err != nil {
		return err
	}

	q.state.outbox = append(q.state.outbox, msg)

	return nil
}
