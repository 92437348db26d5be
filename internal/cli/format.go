package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals and comma thousands separators.
func FormatMoney(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	negative := rounded.IsNegative()
	str := rounded.Abs().StringFixed(2)
	parts := strings.Split(str, ".")

	result := formatThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// FormatAmount is FormatMoney for float amounts.
func FormatAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Sprintf("%v", amount)
	}
	return FormatMoney(decimal.NewFromFloat(amount))
}

// formatThousands inserts a comma between every group of three digits.
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 3 {
		result = s[len(s)-3:] + "," + result
		s = s[:len(s)-3]
	}
	return s + "," + result
}

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	if math.Abs(price) >= 10 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

// FormatPercent formats a decimal fraction as a percentage.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// FormatGreek formats a sensitivity with fixed precision.
func FormatGreek(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

// FormatShares formats a share quantity with two decimals.
func FormatShares(qty float64) string {
	return FormatAmount(qty)
}

// FormatYears formats a time in years.
func FormatYears(t float64) string {
	return fmt.Sprintf("%.4fy", t)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
