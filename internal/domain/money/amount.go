// Package money provides the decimal monetary amount used for every balance and
// transaction amount in the ledger. Amounts are kept at a fixed scale of two
// fractional digits and are never converted to binary floating point.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored and compared.
const Scale = 2

// MaxIntegerDigits matches the NUMERIC(19,2) columns: 19 digits, 2 of them fractional.
const MaxIntegerDigits = 17

// maxInputLength bounds the text Parse will look at. It leaves room for a sign, the
// decimal point and trailing zeros past the scale.
const maxInputLength = 40

var (
	ErrInvalidFormat     = errors.New("invalid monetary amount")
	ErrTooManyDecimals   = errors.New("monetary amount has more than 2 fractional digits")
	ErrEmptyAmountString = errors.New("monetary amount cannot be empty")
	ErrOutOfRange        = errors.New("monetary amount exceeds 17 integer digits")
)

// Amount is an immutable decimal value with a fixed scale of 2.
type Amount struct {
	d decimal.Decimal
}

// Zero returns 0.00
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// Parse converts a plain decimal string such as "1500.00" or "12.5" into an Amount.
// Exponent forms like "1e5" are not amounts and are rejected.
func Parse(s string) (Amount, error) {
	if s == "" {
		return Amount{}, ErrEmptyAmountString
	}
	if len(s) > maxInputLength {
		return Amount{}, fmt.Errorf("%w: %d characters", ErrOutOfRange, len(s))
	}
	if strings.ContainsAny(s, "eE") {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests; it panics on invalid input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal checks the magnitude and scale of d and wraps it.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if integerDigits(d) > MaxIntegerDigits {
		return Amount{}, ErrOutOfRange
	}
	if !d.Equal(d.Truncate(Scale)) {
		return Amount{}, fmt.Errorf("%w: %s", ErrTooManyDecimals, d.String())
	}
	return Amount{d: d.Truncate(Scale)}, nil
}

// FromMinorUnits builds an Amount from an integer count of cents.
func FromMinorUnits(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Scale)}
}

// integerDigits counts the digits left of the decimal point. The exponent is checked
// first so a huge one never expands the coefficient.
func integerDigits(d decimal.Decimal) int {
	exp := int(d.Exponent())
	if exp > MaxIntegerDigits {
		return exp + 1
	}
	return d.NumDigits() + exp
}

// InRange reports whether a fits the storage columns
func (a Amount) InRange() bool {
	return integerDigits(a.d) <= MaxIntegerDigits
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.d.GreaterThanOrEqual(b.d)
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Decimal exposes the underlying value for storage adapters.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrEmptyAmountString
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
