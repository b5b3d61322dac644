package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a human-entered amount ("2000000", "1,500,000", "12.5") to a decimal.
// Thousands separators are accepted; exponents and empty strings are not.
func Parse(amountStr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("invalid amount format: %s", amountStr)
	}

	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %s", amountStr)
	}

	return d, nil
}

// Format renders an amount with comma thousands separators and no trailing zeros,
// e.g. 10000000 → "10,000,000", 1234.50 → "1,234.5".
func Format(d decimal.Decimal) string {
	str := d.String()

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(str, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if hasFrac {
		return sign + b.String() + "." + fracPart
	}
	return sign + b.String()
}
