package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatKSh renders an amount the way the storefront shows prices, e.g. "KSh 2,150.00".
func FormatKSh(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return "KSh " + sign + grouped.String() + "." + frac
}
