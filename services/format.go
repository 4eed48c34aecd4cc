package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats a float64 amount into Indian Rupee notation.
// It uses the Indian numbering system where, after the rightmost 3 digits,
// digits are grouped in pairs (e.g., ₹1,23,45,678.90).
// The result always includes exactly 2 decimal places.
func FormatINR(amount float64) string {
	return formatGrouped(fmt.Sprintf("%.2f", amount), "₹")
}

// FormatMoney formats a decimal amount the same way as FormatINR.
func FormatMoney(amount decimal.Decimal) string {
	return formatGrouped(amount.StringFixed(2), "₹")
}

// FormatRs is FormatMoney with a Latin-1 "Rs. " prefix, for core PDF fonts.
func FormatRs(amount decimal.Decimal) string {
	return formatGrouped(amount.StringFixed(2), "Rs. ")
}

// formatGrouped takes a fixed two-decimal string and applies the symbol and
// Indian grouping.
func formatGrouped(raw, symbol string) string {
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	intPart, decPart, _ := strings.Cut(raw, ".")
	if decPart == "" {
		decPart = "00"
	}

	result := symbol + applyIndianGrouping(intPart) + "." + decPart
	if negative && strings.Trim(intPart+decPart, "0") != "" {
		result = "-" + result
	}
	return result
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]

	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}
