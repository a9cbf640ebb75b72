// Package ledgerguard checks that the entries of a ledger transaction balance.
package ledgerguard

import (
	"fmt"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/moneypkg"
	"github.com/shopspring/decimal"
)

// minLegs is the number of entries needed before the balance is evaluated.
const minLegs = 2

// Check returns domain.ErrLedgerImbalance when the entries of a transfer do not net to zero
// within moneypkg.Tolerance.
//
// Exchanges are not checked: their legs are in different currencies and cannot be summed.
// Fewer than two entries are not evaluated either.
func Check(transactionType string, entries []domain.Entry) error {
	if transactionType == domain.TransactionTypeExchange || len(entries) < minLegs {
		return nil
	}

	sum := Sum(entries)
	if !moneypkg.WithinTolerance(sum) {
		return fmt.Errorf("%w: entries sum to %s", domain.ErrLedgerImbalance, sum.StringFixed(moneypkg.Places))
	}

	return nil
}

// Sum returns the sum of the signed entry amounts.
func Sum(entries []domain.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}

	return sum
}
