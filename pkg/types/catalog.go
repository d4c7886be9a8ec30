package types

import "github.com/shopspring/decimal"

// Cake is a purchasable base product from the catalog.
type Cake struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// AsLineItem turns a catalog cake into a plain basket line.
func (c Cake) AsLineItem(quantity int) LineItem {
	id := c.ID
	return LineItem{
		CakeID:    &id,
		Name:      c.Name,
		BasePrice: c.Price,
		Quantity:  NormalizeQuantity(quantity),
	}
}
