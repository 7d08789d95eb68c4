package model

import (
	"math"
	"strconv"
	"strings"
)

// MinorUnits converts a major-unit amount to minor units (cents).
// All wire formats (storefront cart responses, checkout payload) carry
// prices scaled by 100; the local cart keeps major units.
// Examples: 123.45 → 12345, 99 → 9900.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ParseCents converts decimal string amounts in major units to cents.
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}

// ParsePriceText extracts a major-unit price from display text such as
// "ARS 24.373,00" or "$ 1.234,56". Everything outside [0-9,.] is
// stripped, dots are treated as thousands separators and removed, and
// the decimal comma becomes a dot. Malformed text yields 0, which the
// caller treats as a data-quality failure.
func ParsePriceText(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, text)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseNumericID converts a product/variant identifier to a number.
// The checkout provider matches products by numeric platform IDs; a
// non-numeric identifier yields 0 and is reported upstream as a
// data-quality problem.
func ParseNumericID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
