package pricing

import (
	"testing"

	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestPriceOf(t *testing.T) {
	total := dec("3000")
	cases := []struct {
		name string
		item types.LineItem
		want string
	}{
		{
			name: "base price with topping",
			item: types.LineItem{
				BasePrice: dec("2000"),
				Quantity:  1,
				Customizations: []types.Customization{
					{Category: "Topping", Name: "Cherries", Price: dec("150")},
				},
			},
			want: "2150",
		},
		{
			name: "total price override ignores base",
			item: types.LineItem{BasePrice: dec("999"), Quantity: 2, TotalPrice: &total},
			want: "6000",
		},
		{
			name: "total price ignored when customizations exist",
			item: types.LineItem{
				BasePrice:      dec("1000"),
				Quantity:       2,
				TotalPrice:     &total,
				Customizations: []types.Customization{{Category: "Art", Name: "Logo", Price: dec("250")}},
			},
			want: "2500",
		},
		{
			name: "zero value line",
			item: types.LineItem{Quantity: 1},
			want: "0",
		},
		{
			name: "fractional prices",
			item: types.LineItem{
				BasePrice:      dec("1200.50"),
				Quantity:       3,
				Customizations: []types.Customization{{Name: "Gold leaf", Price: dec("99.99")}},
			},
			want: "3901.47",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PriceOf(tc.item); !got.Equal(dec(tc.want)) {
				t.Fatalf("PriceOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPriceOfIsPure(t *testing.T) {
	cake := int64(7)
	item := types.LineItem{
		CakeID:    &cake,
		BasePrice: dec("2000"),
		Quantity:  2,
		Customizations: []types.Customization{
			{Category: "Topping", Name: "Sprinkles", Price: dec("100")},
		},
	}
	snapshot := item.Clone()

	first := PriceOf(item)
	second := PriceOf(item)
	if !first.Equal(second) {
		t.Fatalf("expected repeatable result, got %s then %s", first, second)
	}
	if !item.BasePrice.Equal(snapshot.BasePrice) || item.Quantity != snapshot.Quantity ||
		len(item.Customizations) != 1 || !item.Customizations[0].Price.Equal(snapshot.Customizations[0].Price) {
		t.Fatal("PriceOf mutated its input")
	}
}

func TestSubtotalAndItemCount(t *testing.T) {
	items := []types.LineItem{
		{BasePrice: dec("1000"), Quantity: 1},
		{BasePrice: dec("500"), Quantity: 2},
	}
	if got := Subtotal(items); !got.Equal(dec("2000")) {
		t.Fatalf("subtotal = %s, want 2000", got)
	}
	if got := ItemCount(items); got != 3 {
		t.Fatalf("item count = %d, want 3", got)
	}
	if got := Subtotal(nil); !got.IsZero() {
		t.Fatalf("empty subtotal = %s", got)
	}
}

func TestQuote(t *testing.T) {
	items := []types.LineItem{
		{BasePrice: dec("1000"), Quantity: 1},
		{BasePrice: dec("500"), Quantity: 2},
	}
	summary := Quote(items, DefaultRates())
	if !summary.Subtotal.Equal(dec("2000")) {
		t.Fatalf("subtotal = %s", summary.Subtotal)
	}
	if !summary.DeliveryFee.Equal(dec("500")) {
		t.Fatalf("delivery fee = %s", summary.DeliveryFee)
	}
	if !summary.Tax.Equal(dec("320")) {
		t.Fatalf("tax = %s", summary.Tax)
	}
	if !summary.Total.Equal(dec("2820")) {
		t.Fatalf("total = %s", summary.Total)
	}
	if summary.ItemCount != 3 {
		t.Fatalf("item count = %d", summary.ItemCount)
	}
}

func TestQuoteRoundsTaxAndSkipsFeeWhenEmpty(t *testing.T) {
	summary := Quote([]types.LineItem{{BasePrice: dec("99.99"), Quantity: 1}}, DefaultRates())
	if !summary.Tax.Equal(dec("16")) {
		t.Fatalf("tax = %s, want 16.00", summary.Tax)
	}

	empty := Quote(nil, DefaultRates())
	if !empty.Total.IsZero() || !empty.DeliveryFee.IsZero() {
		t.Fatalf("empty basket should cost nothing, got %+v", empty)
	}
}
