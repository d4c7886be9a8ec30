package enums

import "fmt"

// Currency represents the denomination orders are priced in.
type Currency string

const (
	CurrencyKES Currency = "KES"
)

var validCurrencies = []Currency{
	CurrencyKES,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// Symbol returns the display prefix used on receipts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyKES:
		return "KSh"
	default:
		return string(c)
	}
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
