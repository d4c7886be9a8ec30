package checkout

import (
	"fmt"

	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/types"
)

// MaxLineQuantity is the largest quantity the order backend accepts per line.
const MaxLineQuantity = 100

// LineLimitViolation describes a basket line the order backend would refuse.
type LineLimitViolation struct {
	CartItemID   string `json:"cart_item_id"`
	Name         string `json:"name,omitempty"`
	MaxQty       int    `json:"max_qty"`
	RequestedQty int    `json:"requested_qty"`
}

// ValidateLineLimits reports every line whose quantity exceeds MaxLineQuantity.
func ValidateLineLimits(items []types.LineItem) error {
	var violations []LineLimitViolation
	for _, item := range items {
		if item.Quantity <= MaxLineQuantity {
			continue
		}
		violations = append(violations, LineLimitViolation{
			CartItemID:   item.CartItemID,
			Name:         item.Name,
			MaxQty:       MaxLineQuantity,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line quantity exceeds the order limit for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
