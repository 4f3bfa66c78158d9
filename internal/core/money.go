// Package core holds the domain model for the fiscal aggregation engine.
//
// This file contains the monetary types. All arithmetic runs on integer
// cents; decimal parsing performs half-up rounding on the third decimal
// place and formatting happens only at presentation boundaries.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact monetary value in integer cents.
type Money struct {
	Cents int64
}

// Amount is a lenient monetary scalar as received from upstream sources
// (JSON APIs, imports, OCR candidates). The source value may arrive as a
// JSON number, a numeric string with dot or comma decimals, or null.
// Valid is false when no usable value was present. Malformed is set only
// when a value was present but unparseable; the classifier treats those as
// zero and emits a warning, while absent or null fields are plain zeros.
type Amount struct {
	Cents     int64
	Valid     bool
	Malformed bool
}

// Cents wraps integer cents in a valid Amount.
func Cents(c int64) Amount {
	return Amount{Cents: c, Valid: true}
}

// Euros converts euros to a valid Amount, rounding half-up on fractions of
// a cent. Intended for test fixtures and display-layer round trips.
func Euros(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{Cents: roundHalfUp(v * 100), Valid: true}
}

func (a Amount) Money() Money {
	return Money{Cents: a.Cents}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(FormatDecimal(a.Cents)), nil
}

// UnmarshalJSON never fails on malformed values: junk becomes an invalid
// zero Amount flagged Malformed so that classification can degrade
// gracefully, while null stays an ordinary absent zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = Amount{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = Amount{Malformed: true}
			return nil
		}
		cents, ok := ParseSignedCents(s)
		*a = Amount{Cents: cents, Valid: ok, Malformed: !ok}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*a = Amount{Malformed: true}
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		*a = Amount{Malformed: true}
		return nil
	}
	*a = Amount{Cents: roundHalfUp(f * 100), Valid: true}
	return nil
}

// ParseDecimalToCents converts a non-negative decimal string to cents with
// half-up rounding on the third decimal place. It accepts both dot (12.34)
// and comma (12,34) separators. Returns ErrInvalidAmount for malformed or
// negative input.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseSignedCents is the lenient variant used for amount coercion: it
// accepts an optional leading sign and reports ok=false instead of an error.
func ParseSignedCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	if neg {
		cents = -cents
	}
	return cents, true
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for all calculations.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// FormatDecimal renders cents as a plain decimal string with two digits,
// e.g. 123456 -> "1234.56". Used for JSON output.
func FormatDecimal(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatEuros renders cents in the Spanish display convention,
// e.g. 123456 -> "1234,56 €".
func FormatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s + " €"
	}
	return s + " €"
}

func roundHalfUp(v float64) int64 {
	if v < 0 {
		return -int64(-v + 0.5)
	}
	return int64(v + 0.5)
}
