// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. The JSON form is a plain decimal number
// in major units so exported backups stay readable ("amount": 12.5).
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when formatting without an explicit currency.
const DefaultCurrency = money.USD

type Money struct {
	Cents int64
}

// FromDecimal rounds d to two decimals (half away from zero) and returns it
// as Money. d must come from amounts already held as Money; input from
// outside goes through NewFromDecimal.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// NewFromDecimal is FromDecimal with a range check: an amount whose cents
// do not fit in an int64 is ErrInvalidAmount.
func NewFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseDecimalToCents converts a decimal string to cents with rounding on the
// third decimal place.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs,
// exponents, zero and anything that is not a plain decimal are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := NewFromDecimal(d)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Abs is used for the "exceeded by" framing of a negative remainder.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Format renders the amount with the symbol and separators of currency.
// An empty or unknown currency falls back to DefaultCurrency.
func (m Money) Format(currency string) string {
	if currency == "" || money.GetCurrency(currency) == nil {
		currency = DefaultCurrency
	}
	return money.New(m.Cents, currency).Display()
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Quoted
// amounts follow ParseDecimalToCents, so "12,50" is accepted there.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		m.Cents = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parse amount: %w", err)
		}
		cents, err := ParseDecimalToCents(s)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		m.Cents = cents
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("parse amount %s: %w", data, ErrInvalidAmount)
	}
	v, err := NewFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
