// Package utils provides formatting and unit helpers for IDX data.
package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// ToTrillion converts a raw IDR amount to trillions.
func ToTrillion(amount float64) float64 {
	return amount / 1e12
}

// ToBillion converts a raw IDR amount to billions.
func ToBillion(amount float64) float64 {
	return amount / 1e9
}

// ToPercent converts a fraction to a percentage (0.0125 → 1.25).
func ToPercent(fraction float64) float64 {
	return fraction * 100
}

// FormatIDRCompact formats a number with the units used in IDX reporting.
// e.g., 1.5e12 → "Rp 1.5 T", 2.3e9 → "Rp 2.3 B"
func FormatIDRCompact(amount float64) string {
	prefix := "Rp "
	if amount < 0 {
		prefix = "-Rp "
		amount = -amount
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%s T", prefix, formatWithDecimals(amount/1e12))
	case amount >= 1e9:
		return fmt.Sprintf("%s%s B", prefix, formatWithDecimals(amount/1e9))
	case amount >= 1e6:
		return fmt.Sprintf("%s%s M", prefix, formatWithDecimals(amount/1e6))
	case amount >= 1e3:
		return fmt.Sprintf("%s%s K", prefix, formatWithDecimals(amount/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatSectorLabel turns a sub-sector slug into a display label:
// "oil-gas-coal" → "Oil Gas Coal".
func FormatSectorLabel(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
