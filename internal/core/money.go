// Package core holds the statement calculation rules and the text helpers
// that turn a result into the wording of the printed form.
//
// This file contains parsing and formatting of leva amounts.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount converts a user-entered decimal string to a non-negative amount
// rounded to stotinki.
//
// Both dot (12.34) and comma (12,34) separators are accepted, as are spaces used
// as thousands separators. An empty string is zero.
//
// Examples:
//
//	ParseAmount("1 250,5")  -> 1250.50
//	ParseAmount("12.345")   -> 12.35 (half-up)
//	ParseAmount("-1")       -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return round2(d), nil
}

// ParseSignedAmount is ParseAmount with an optional leading minus. It serves
// the manual overrides of rows 4 and 5, which may be negative.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		d, err := ParseAmount(rest)
		if err != nil || strings.TrimSpace(rest) == "" {
			return decimal.Zero, ErrInvalidAmount
		}
		return d.Neg(), nil
	}
	return ParseAmount(s)
}

// FormatAmount renders an amount with exactly two decimals and a dot separator,
// the way the printed form expects it.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
