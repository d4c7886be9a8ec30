package pricing

import (
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	// DefaultDeliveryFee is the flat KSh delivery charge per order.
	DefaultDeliveryFee = decimal.NewFromInt(500)
	// DefaultTaxRate is Kenyan VAT applied to the subtotal.
	DefaultTaxRate = decimal.RequireFromString("0.16")
)

// UnitPrice returns the price of one unit of the line.
// A precomputed total price wins only when the line has no customizations.
func UnitPrice(item types.LineItem) decimal.Decimal {
	if item.TotalPrice != nil && len(item.Customizations) == 0 {
		return *item.TotalPrice
	}
	unit := item.BasePrice
	for _, c := range item.Customizations {
		unit = unit.Add(c.Price)
	}
	return unit
}

// PriceOf returns the line total. It never mutates item.
func PriceOf(item types.LineItem) decimal.Decimal {
	return UnitPrice(item).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Subtotal sums PriceOf over every line.
func Subtotal(items []types.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(PriceOf(item))
	}
	return total
}

// ItemCount sums quantities over every line.
func ItemCount(items []types.LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Rates are the order-level charges added on top of the subtotal.
type Rates struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultRates returns the storefront's standard fee and VAT.
func DefaultRates() Rates {
	return Rates{DeliveryFee: DefaultDeliveryFee, TaxRate: DefaultTaxRate}
}

// Summary is the priced view of a basket.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

// Quote prices a basket. Tax is levied on the subtotal only and rounded to cents.
// An empty basket carries no delivery fee.
func Quote(items []types.LineItem, rates Rates) Summary {
	subtotal := Subtotal(items)
	fee := rates.DeliveryFee
	if len(items) == 0 {
		fee = decimal.Zero
	}
	tax := subtotal.Mul(rates.TaxRate).Round(2)
	return Summary{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
		ItemCount:   ItemCount(items),
	}
}
