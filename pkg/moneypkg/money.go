// Package moneypkg provides fixed-point money helpers shared across the ledger.
package moneypkg

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every stored amount has.
const Places = 2

// RatePlaces is the number of fractional digits a stored exchange rate may have.
const RatePlaces = 10

// MaxAmount is the largest amount a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// MaxRate is the largest rate a NUMERIC(20,10) column holds.
var MaxRate = decimal.RequireFromString("9999999999.9999999999")

// Tolerance is the largest absolute sum a single-currency transaction may leave behind.
var Tolerance = decimal.New(1, -Places)

// ErrNotPositive indicates that the parsed value is zero or negative.
var ErrNotPositive = errors.New("must be a positive number")

// ErrTooPrecise indicates that the value has more fractional digits than allowed.
var ErrTooPrecise = errors.New("too many fractional digits")

// ErrOutOfRange indicates that the value does not fit in its storage column.
var ErrOutOfRange = errors.New("value out of range")

// Round2 rounds d to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ParsePositive parses s and checks that it is a finite number greater than zero.
//
// maxPlaces < 0 disables the precision check.
func ParsePositive(s string, maxPlaces int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	if !d.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}

	if maxPlaces >= 0 && !d.Equal(d.Truncate(maxPlaces)) {
		return decimal.Zero, ErrTooPrecise
	}

	return d, nil
}

// ParseAmount parses a money amount: positive, at most Places fractional digits, at most MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	return parseBounded(s, Places, MaxAmount)
}

// ParseRate parses an exchange rate: positive, at most RatePlaces fractional digits, at most MaxRate.
func ParseRate(s string) (decimal.Decimal, error) {
	return parseBounded(s, RatePlaces, MaxRate)
}

func parseBounded(s string, places int32, limit decimal.Decimal) (decimal.Decimal, error) {
	d, err := ParsePositive(s, places)
	if err != nil {
		return decimal.Zero, err
	}

	if d.GreaterThan(limit) {
		return decimal.Zero, ErrOutOfRange
	}

	return d, nil
}

// ValidAmount reports whether d is a positive amount with at most Places fractional digits
// that fits in storage.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(Places)) && d.LessThanOrEqual(MaxAmount)
}

// ValidRate reports whether d is a positive rate with at most RatePlaces fractional digits
// that fits in storage.
func ValidRate(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(RatePlaces)) && d.LessThanOrEqual(MaxRate)
}

// WithinTolerance reports whether |d| <= Tolerance.
func WithinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}

// ValidPositiveDecimal validates that a string field holds a number greater than zero.
var ValidPositiveDecimal validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)

	return err == nil && d.IsPositive()
}
