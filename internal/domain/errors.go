// Package domain provides definitions of all ledger entities and the errors the engine reports.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds reported by the transaction engine. Callers match them with errors.Is.
var (
	// ErrInvalidReference indicates that an account id does not resolve.
	ErrInvalidReference = errors.New("invalid account reference")
	// ErrForbidden indicates that the acting user does not own the required accounts.
	ErrForbidden = errors.New("forbidden")
	// ErrAccountLocked indicates that a participating account is locked.
	ErrAccountLocked = errors.New("account is locked")
	// ErrCurrencyMismatch indicates that the operation does not fit the account currencies.
	ErrCurrencyMismatch = errors.New("accounts currency mismatch")
	// ErrInsufficientFunds indicates that the source balance is below the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount indicates a non-numeric, zero or negative amount or rate.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrLedgerImbalance indicates that the entries of a transaction do not net to zero.
	ErrLedgerImbalance = errors.New("ledger entries must balance to zero")
	// ErrEngineUnavailable indicates a store conflict, timeout or connectivity failure.
	// It is the only retryable kind.
	ErrEngineUnavailable = errors.New("ledger engine unavailable")
)

// Refinements of the kinds above.
var (
	// ErrAccountNotFound indicates that the account is not found or not visible to the user.
	ErrAccountNotFound = fmt.Errorf("%w: account not found", ErrInvalidReference)
	// ErrSameAccount indicates that the source and destination accounts are the same.
	ErrSameAccount = fmt.Errorf("%w: source and destination accounts must differ", ErrInvalidReference)
	// ErrNotOwnerOfEither indicates a transfer between two accounts the user does not own.
	ErrNotOwnerOfEither = fmt.Errorf("%w: at least one account must belong to the user", ErrForbidden)
	// ErrNotOwnerOfBoth indicates an exchange involving an account the user does not own.
	ErrNotOwnerOfBoth = fmt.Errorf("%w: both accounts must belong to the user", ErrForbidden)
	// ErrTransferCurrency indicates a transfer between accounts of different currencies.
	ErrTransferCurrency = fmt.Errorf("%w: transfer must be in the same currency, use exchange", ErrCurrencyMismatch)
	// ErrExchangeCurrency indicates an exchange between accounts of the same currency.
	ErrExchangeCurrency = fmt.Errorf("%w: exchange must be between different currencies, use transfer", ErrCurrencyMismatch)
	// ErrInvalidRate indicates an exchange rate that is not positive or does not fit in storage.
	ErrInvalidRate = fmt.Errorf("%w: exchange rate must be a positive number", ErrInvalidAmount)
	// ErrInvalidTargetAmount indicates a non-numeric, zero or negative target amount.
	ErrInvalidTargetAmount = fmt.Errorf("%w: target amount must be a positive number", ErrInvalidAmount)
)

// IsRetryable reports whether the caller may retry the failed operation as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEngineUnavailable)
}

// Kind returns the short name of the error kind err belongs to, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrLedgerImbalance):
		return "ledger_imbalance"
	case errors.Is(err, ErrEngineUnavailable):
		return "engine_unavailable"
	}

	return "internal"
}
