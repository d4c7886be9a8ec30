package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineItemUnmarshalCoercesBadInput(t *testing.T) {
	cases := []struct {
		name      string
		payload   string
		wantBase  string
		wantQty   int
		wantCake  *int64
		wantTotal string
	}{
		{
			name:     "missing money and quantity",
			payload:  `{"cart_item_id":"1-7","name":"Vanilla"}`,
			wantBase: "0",
			wantQty:  1,
		},
		{
			name:     "string money and zero quantity",
			payload:  `{"cart_item_id":"1-7","cake_id":7,"name":"Vanilla","base_price":"2000","quantity":0}`,
			wantBase: "2000",
			wantQty:  1,
			wantCake: int64Ptr(7),
		},
		{
			name:     "garbage money and negative quantity",
			payload:  `{"cart_item_id":"1-custom","cake_id":null,"name":"X","base_price":"abc","quantity":-4}`,
			wantBase: "0",
			wantQty:  1,
		},
		{
			name:      "fractional quantity and total price",
			payload:   `{"cart_item_id":"1-2","cake_id":"2","name":"Y","base_price":1500.5,"quantity":2.9,"total_price":3000}`,
			wantBase:  "1500.5",
			wantQty:   2,
			wantCake:  int64Ptr(2),
			wantTotal: "3000",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var item LineItem
			if err := json.Unmarshal([]byte(tc.payload), &item); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !item.BasePrice.Equal(decimal.RequireFromString(tc.wantBase)) {
				t.Fatalf("base price %s, want %s", item.BasePrice, tc.wantBase)
			}
			if item.Quantity != tc.wantQty {
				t.Fatalf("quantity %d, want %d", item.Quantity, tc.wantQty)
			}
			switch {
			case tc.wantCake == nil && item.CakeID != nil:
				t.Fatalf("expected no cake id, got %d", *item.CakeID)
			case tc.wantCake != nil && (item.CakeID == nil || *item.CakeID != *tc.wantCake):
				t.Fatalf("unexpected cake id %v", item.CakeID)
			}
			if tc.wantTotal == "" && item.TotalPrice != nil {
				t.Fatalf("expected no total price, got %s", item.TotalPrice)
			}
			if tc.wantTotal != "" && (item.TotalPrice == nil || !item.TotalPrice.Equal(decimal.RequireFromString(tc.wantTotal))) {
				t.Fatalf("unexpected total price %v", item.TotalPrice)
			}
		})
	}
}

func TestCustomizationAcceptsLegacyTypeKey(t *testing.T) {
	var item LineItem
	payload := `{"cart_item_id":"1-7","name":"Cake","customizations":[{"type":"Topping","name":"Cherries","price":150},{"category":"Flavor","name":"Vanilla","price":null}]}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(item.Customizations) != 2 {
		t.Fatalf("expected 2 customizations, got %d", len(item.Customizations))
	}
	if item.Customizations[0].Category != "Topping" {
		t.Fatalf("legacy type key should map to category, got %q", item.Customizations[0].Category)
	}
	if !item.Customizations[1].Price.IsZero() {
		t.Fatalf("null price should coerce to zero, got %s", item.Customizations[1].Price)
	}
}

func TestLineItemMarshalWritesNumbers(t *testing.T) {
	cake := int64(7)
	item := LineItem{
		CartItemID: "1700000000000-7",
		CakeID:     &cake,
		Name:       "Vanilla",
		BasePrice:  decimal.NewFromInt(2000),
		Quantity:   1,
		Customizations: []Customization{
			{Category: "Topping", Name: "Cherries", Price: decimal.NewFromInt(150)},
		},
	}
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(raw)
	for _, want := range []string{`"base_price":2000`, `"price":150`, `"category":"Topping"`, `"cake_id":7`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in %s", want, text)
		}
	}
	if strings.Contains(text, "total_price") {
		t.Fatalf("unset total price should be omitted: %s", text)
	}

	empty, err := json.Marshal(LineItem{CartItemID: "x", Quantity: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(empty), `"customizations":[]`) {
		t.Fatalf("nil customizations should encode as empty list: %s", empty)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	cake := int64(3)
	total := decimal.NewFromInt(10)
	item := LineItem{
		CakeID:         &cake,
		TotalPrice:     &total,
		Customizations: []Customization{{Name: "a"}},
		Metadata:       &LineItemMetadata{DeliveryDate: "2026-01-01"},
	}
	clone := item.Clone()
	*clone.CakeID = 9
	clone.Customizations[0].Name = "b"
	clone.Metadata.DeliveryDate = "2027-01-01"

	if *item.CakeID != 3 || item.Customizations[0].Name != "a" || item.Metadata.DeliveryDate != "2026-01-01" {
		t.Fatal("clone should not share state with the original")
	}
}

func TestIDStem(t *testing.T) {
	cake := int64(42)
	if got := (LineItem{CakeID: &cake}).IDStem(); got != "42" {
		t.Fatalf("unexpected stem %s", got)
	}
	if got := (LineItem{}).IDStem(); got != CustomMarker {
		t.Fatalf("unexpected stem %s", got)
	}
}

func TestFormatKSh(t *testing.T) {
	cases := map[string]string{
		"0":         "KSh 0.00",
		"150":       "KSh 150.00",
		"2150":      "KSh 2,150.00",
		"1234567.5": "KSh 1,234,567.50",
		"-500":      "KSh -500.00",
	}
	for in, want := range cases {
		if got := FormatKSh(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatKSh(%s) = %q, want %q", in, got, want)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }
