package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomMarker replaces the cake id in cart item ids for fully custom lines.
const CustomMarker = "custom"

// Customization is one priced choice attached to a line item.
type Customization struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
}

// LineItemMetadata carries wizard inputs that travel with the line to checkout.
type LineItemMetadata struct {
	DeliveryDate    string `json:"delivery_date,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// LineItem is one configured cake purchase in a basket.
type LineItem struct {
	CartItemID     string            `json:"cart_item_id"`
	CakeID         *int64            `json:"cake_id,omitempty"`
	Name           string            `json:"name"`
	BasePrice      decimal.Decimal   `json:"base_price"`
	Quantity       int               `json:"quantity"`
	Customizations []Customization   `json:"customizations"`
	TotalPrice     *decimal.Decimal  `json:"total_price,omitempty"`
	Metadata       *LineItemMetadata `json:"metadata,omitempty"`
}

// IDStem is the identifier part of a cart item id: the cake id or CustomMarker.
func (li LineItem) IDStem() string {
	if li.CakeID == nil {
		return CustomMarker
	}
	return strconv.FormatInt(*li.CakeID, 10)
}

// Clone returns a deep copy so callers cannot alias basket state.
func (li LineItem) Clone() LineItem {
	out := li
	if li.CakeID != nil {
		id := *li.CakeID
		out.CakeID = &id
	}
	if li.TotalPrice != nil {
		total := *li.TotalPrice
		out.TotalPrice = &total
	}
	if li.Metadata != nil {
		meta := *li.Metadata
		out.Metadata = &meta
	}
	if li.Customizations != nil {
		out.Customizations = append([]Customization(nil), li.Customizations...)
	}
	return out
}

// NormalizeQuantity clamps a requested quantity to the minimum of 1.
func NormalizeQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

type customizationWire struct {
	Category string          `json:"category,omitempty"`
	Type     string          `json:"type,omitempty"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price,omitempty"`
}

type lineItemWire struct {
	CartItemID     string              `json:"cart_item_id"`
	CakeID         json.RawMessage     `json:"cake_id,omitempty"`
	Name           string              `json:"name"`
	BasePrice      json.RawMessage     `json:"base_price,omitempty"`
	Quantity       json.RawMessage     `json:"quantity,omitempty"`
	Customizations []customizationWire `json:"customizations"`
	TotalPrice     json.RawMessage     `json:"total_price,omitempty"`
	Metadata       *LineItemMetadata   `json:"metadata,omitempty"`
}

// MarshalJSON writes money as bare JSON numbers.
func (c Customization) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category string      `json:"category"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
	}{c.Category, c.Name, json.Number(c.Price.String())})
}

// UnmarshalJSON accepts the legacy "type" key and coerces a bad price to 0.
func (c *Customization) UnmarshalJSON(data []byte) error {
	var wire customizationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = wire.toCustomization()
	return nil
}

func (w customizationWire) toCustomization() Customization {
	category := w.Category
	if category == "" {
		category = w.Type
	}
	return Customization{
		Category: category,
		Name:     w.Name,
		Price:    coerceMoney(w.Price),
	}
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	type wire struct {
		CartItemID     string            `json:"cart_item_id"`
		CakeID         *int64            `json:"cake_id,omitempty"`
		Name           string            `json:"name"`
		BasePrice      json.Number       `json:"base_price"`
		Quantity       int               `json:"quantity"`
		Customizations []Customization   `json:"customizations"`
		TotalPrice     *json.Number      `json:"total_price,omitempty"`
		Metadata       *LineItemMetadata `json:"metadata,omitempty"`
	}
	out := wire{
		CartItemID:     li.CartItemID,
		CakeID:         li.CakeID,
		Name:           li.Name,
		BasePrice:      json.Number(li.BasePrice.String()),
		Quantity:       li.Quantity,
		Customizations: li.Customizations,
		Metadata:       li.Metadata,
	}
	if out.Customizations == nil {
		out.Customizations = []Customization{}
	}
	if li.TotalPrice != nil {
		total := json.Number(li.TotalPrice.String())
		out.TotalPrice = &total
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes leniently: money that is missing or unparsable
// becomes 0, a quantity below 1 becomes 1, and an unparsable cake id is dropped.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var wire lineItemWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := LineItem{
		CartItemID: wire.CartItemID,
		CakeID:     coerceID(wire.CakeID),
		Name:       wire.Name,
		BasePrice:  coerceMoney(wire.BasePrice),
		Quantity:   coerceQuantity(wire.Quantity),
		Metadata:   wire.Metadata,
	}
	if len(wire.Customizations) > 0 {
		out.Customizations = make([]Customization, 0, len(wire.Customizations))
		for _, c := range wire.Customizations {
			out.Customizations = append(out.Customizations, c.toCustomization())
		}
	}
	if total, ok := parseMoney(wire.TotalPrice); ok {
		out.TotalPrice = &total
	}
	*li = out
	return nil
}

func parseMoney(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, false
	}
	text := strings.Trim(string(raw), `"`)
	value, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func coerceMoney(raw json.RawMessage) decimal.Decimal {
	value, _ := parseMoney(raw)
	return value
}

func coerceQuantity(raw json.RawMessage) int {
	value, ok := parseMoney(raw)
	if !ok {
		return 1
	}
	f := value.Floor().InexactFloat64()
	if f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func coerceID(raw json.RawMessage) *int64 {
	value, ok := parseMoney(raw)
	if !ok || !value.IsInteger() {
		return nil
	}
	id := value.IntPart()
	return &id
}
