package moneypkg

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{in: "46", want: "46"},
		{in: "1.005", want: "1.01"},
		{in: "1.004", want: "1"},
		{in: "-1.005", want: "-1.01"},
		{in: "2.675", want: "2.68"},
		{in: "0.125", want: "0.13"},
		{in: "99.999", want: "100"},
	}

	for _, tc := range testCases {
		got := Round2(decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRound2Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"46.0000", "0.005", "12.3456", "-7.777", "1000000.995", "0.0049"}

	for _, in := range inputs {
		once := Round2(decimal.RequireFromString(in))
		twice := Round2(once)

		if !once.Equal(twice) {
			t.Errorf("Round2(Round2(%v)) = %v, want %v", in, twice, once)
		}
	}
}

func TestParsePositive(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		in        string
		maxPlaces int32
		want      string
		wantErr   error
	}{
		{name: "OK", in: "40.00", maxPlaces: Places, want: "40"},
		{name: "Zero", in: "0", maxPlaces: Places, wantErr: ErrNotPositive},
		{name: "Negative", in: "-1", maxPlaces: Places, wantErr: ErrNotPositive},
		{name: "TooPrecise", in: "1.001", maxPlaces: Places, wantErr: ErrTooPrecise},
		{name: "PrecisionUnchecked", in: "0.92345678", maxPlaces: -1, want: "0.92345678"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePositive(tc.in, tc.maxPlaces)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParsePositive(%v, %v) returned error %v, want %v", tc.in, tc.maxPlaces, err, tc.wantErr)
			}

			if tc.wantErr == nil && !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("ParsePositive(%v, %v) = %v, want %v", tc.in, tc.maxPlaces, got, tc.want)
			}
		})
	}

	for _, in := range []string{"", "abc", "NaN", "Inf", "1,5"} {
		if _, err := ParsePositive(in, Places); err == nil {
			t.Errorf("ParsePositive(%q, %v) returned nil error, want non-nil", in, Places)
		}
	}
}

func TestParseAmountAndRate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		parse   func(string) (decimal.Decimal, error)
		in      string
		wantErr error
	}{
		{name: "AmountOK", parse: ParseAmount, in: "9999999999999.99"},
		{name: "AmountTooLarge", parse: ParseAmount, in: "10000000000000", wantErr: ErrOutOfRange},
		{name: "AmountTooPrecise", parse: ParseAmount, in: "0.001", wantErr: ErrTooPrecise},
		{name: "AmountZero", parse: ParseAmount, in: "0", wantErr: ErrNotPositive},
		{name: "RateOK", parse: ParseRate, in: "0.1234567891"},
		{name: "RateTooPrecise", parse: ParseRate, in: "0.12345678912", wantErr: ErrTooPrecise},
		{name: "RateTooLarge", parse: ParseRate, in: "10000000000", wantErr: ErrOutOfRange},
		{name: "RateNegative", parse: ParseRate, in: "-0.5", wantErr: ErrNotPositive},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.parse(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("parse(%v) returned error %v, want %v", tc.in, err, tc.wantErr)
			}

			if tc.wantErr == nil && !got.Equal(decimal.RequireFromString(tc.in)) {
				t.Errorf("parse(%v) = %v, want %v", tc.in, got, tc.in)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want bool
	}{
		{in: "0", want: true},
		{in: "0.01", want: true},
		{in: "-0.01", want: true},
		{in: "0.011", want: false},
		{in: "-40", want: false},
	}

	for _, tc := range testCases {
		if got := WithinTolerance(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("WithinTolerance(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want bool
	}{
		{in: "0.01", want: true},
		{in: "9999999999999.99", want: true},
		{in: "10000000000000", want: false},
		{in: "1e20", want: false},
		{in: "1.001", want: false},
		{in: "0", want: false},
		{in: "-5", want: false},
	}

	for _, tc := range testCases {
		if got := ValidAmount(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("ValidAmount(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidRate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want bool
	}{
		{in: "0.92", want: true},
		{in: "0.0000000001", want: true},
		{in: "9999999999.9999999999", want: true},
		{in: "0.00000000001", want: false},
		{in: "10000000000", want: false},
		{in: "0", want: false},
		{in: "-1.5", want: false},
	}

	for _, tc := range testCases {
		if got := ValidRate(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("ValidRate(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidPositiveDecimal(t *testing.T) {
	t.Parallel()

	v := validator.New()
	if err := v.RegisterValidation("decimal_gt0", ValidPositiveDecimal); err != nil {
		t.Fatalf("RegisterValidation returned error: %v", err)
	}

	testCases := []struct {
		in    string
		valid bool
	}{
		{in: "10", valid: true},
		{in: "0.01", valid: true},
		{in: "1.23456", valid: true},
		{in: "0", valid: false},
		{in: "-5", valid: false},
		{in: "abc", valid: false},
		{in: "NaN", valid: false},
		{in: "", valid: false},
	}

	for _, tc := range testCases {
		err := v.Var(tc.in, "decimal_gt0")
		if got := err == nil; got != tc.valid {
			t.Errorf("Var(%q) valid = %v, want %v (err: %v)", tc.in, got, tc.valid, err)
		}
	}
}
