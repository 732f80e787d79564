package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyPHP renders an amount as a Philippine peso string with
// thousands separators. Example: 15000.50 -> "PHP 15,000.50".
func FormatCurrencyPHP(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	integerPart := parts[0]
	decimalPart := parts[1]

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := "PHP " + strings.Join(groups, ",") + "." + decimalPart
	if negative {
		out = "PHP -" + strings.Join(groups, ",") + "." + decimalPart
	}
	return out
}
