// Package core holds the budgeting DTOs mirrored from the remote API together
// with the small client-side rules applied to them before rendering or
// submitting a form.
//
// This file contains money parsing and formatting. Amounts travel as integer
// cents on the wire and are divided by 100 only for display.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents.
type Money struct {
	Cents int64
}

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
)

// Cents builds a Money value.
func Cents(c int64) Money { return Money{Cents: c} }

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Decimal returns the display value (cents / 100).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the display value as float64, for charts only.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String formats the amount the way the UI shows it, e.g. "R$ 1.234,56".
func (m Money) String() string {
	return FormatBRL(m.Cents)
}

// FormatBRL formats cents as Brazilian reais with dot thousands grouping and a
// decimal comma.
func FormatBRL(cents int64) string {
	d := decimal.New(cents, -2)
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + s
	}
	return s
}

// ParseMoney converts user input to cents, rounding half away from zero on the
// third decimal place.
//
// Accepted forms: "12.34", "12,34", "1.234,56", "1,234.56", "-5". When both
// separators are present the right-most one is the decimal separator.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return Money{}, ErrInvalidAmount
		}
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return Money{}, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return Money{}, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 || s == "." {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Guard the int64 range before shifting to cents.
	if d.Abs().GreaterThan(decimal.New(90_000_000_000_000, 0)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// ParsePositiveMoney is ParseMoney restricted to amounts greater than zero.
func ParsePositiveMoney(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrAmountNotPositive
	}
	return m, nil
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	p, _ := decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole.Cents)).
		Round(2).
		Float64()
	return p
}
