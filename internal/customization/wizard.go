package customization

import (
	"fmt"
	"strings"
	"time"

	"github.com/cakehouse/storefront/internal/delivery"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	MinWizardQuantity     = 1
	MaxWizardQuantity     = 10
	maxSpecialRequestsLen = 1000
	customSuffix          = " (Custom)"
)

// Draft is the state of a custom order before it becomes a basket line.
type Draft struct {
	Cake            types.Cake
	Quantity        int
	DeliveryDate    time.Time
	SpecialRequests string
	Selections      *Selections
}

// Wizard validates drafts and turns them into line items.
type Wizard struct {
	window delivery.Window
	now    func() time.Time
}

func NewWizard(window delivery.Window, now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	return &Wizard{window: window, now: now}
}

// LiveTotal is the running price shown while the draft is edited:
// (base price + selected options) x quantity. It does not validate.
func (w *Wizard) LiveTotal(d Draft) decimal.Decimal {
	unit := d.Cake.Price
	if d.Selections != nil {
		unit = unit.Add(d.Selections.TotalAdjustment())
	}
	qty := d.Quantity
	if qty < MinWizardQuantity {
		qty = MinWizardQuantity
	}
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// Build validates d and returns the basket line it describes. The line has no
// cart item id yet; the basket assigns one on add.
func (w *Wizard) Build(d Draft) (types.LineItem, error) {
	if err := w.validate(d); err != nil {
		return types.LineItem{}, err
	}

	item := d.Cake.AsLineItem(d.Quantity)
	item.Name = d.Cake.Name + customSuffix
	if d.Selections != nil {
		item.Customizations = d.Selections.ToLineItemCustomizations()
	}
	item.Metadata = &types.LineItemMetadata{
		DeliveryDate:    delivery.FormatDate(d.DeliveryDate),
		SpecialRequests: strings.TrimSpace(d.SpecialRequests),
	}
	return item, nil
}

func (w *Wizard) validate(d Draft) error {
	if d.Cake.ID <= 0 || strings.TrimSpace(d.Cake.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a base cake is required")
	}
	if d.Quantity < MinWizardQuantity || d.Quantity > MaxWizardQuantity {
		return pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between %d and %d", MinWizardQuantity, MaxWizardQuantity),
		).WithDetails(map[string]any{"quantity": d.Quantity})
	}
	if len(d.SpecialRequests) > maxSpecialRequestsLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "special requests are too long").
			WithDetails(map[string]any{"max": maxSpecialRequestsLen})
	}
	if d.DeliveryDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery date is required")
	}
	return w.window.Check(d.DeliveryDate, w.now())
}
