package integrationtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/go-petr/fx-ledger/internal/accountrepo"
	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
)

// SeedAccount creates an unlocked checking account.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, ownerID int64, currency, balance string) domain.Account {
	t.Helper()

	return seed(t, db, domain.CreateAccountParams{
		OwnerID:  ownerID,
		Name:     "Main " + currency,
		Type:     "checking",
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
	})
}

// SeedLockedAccount creates a locked checking account.
func SeedLockedAccount(t *testing.T, db dbpkg.SQLInterface, ownerID int64, currency, balance string) domain.Account {
	t.Helper()

	return seed(t, db, domain.CreateAccountParams{
		OwnerID:  ownerID,
		Name:     "Frozen " + currency,
		Type:     "checking",
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
		IsLocked: true,
	})
}

func seed(t *testing.T, db dbpkg.SQLInterface, arg domain.CreateAccountParams) domain.Account {
	t.Helper()

	account, err := accountrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// Balance reads the current balance of the account.
func Balance(t *testing.T, db dbpkg.SQLInterface, accountID int64) decimal.Decimal {
	t.Helper()

	account, err := accountrepo.NewRepoPGS(db).Get(context.Background(), accountID)
	if err != nil {
		t.Fatalf("accountRepo.Get(context.Background(), %d) returned error: %v", accountID, err)
	}

	return account.Balance
}
