package customization

import (
	"strings"

	"github.com/cakehouse/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// OtherCategory collects options that arrive without a category.
const OtherCategory = "Other"

// multiSelectCategories accept several options at once; every other category
// accepts at most one.
var multiSelectCategories = map[string]struct{}{
	"Topping": {},
	"Art":     {},
}

// KindOf reports the selection cardinality of category.
func KindOf(category string) enums.SelectionKind {
	if _, ok := multiSelectCategories[category]; ok {
		return enums.SelectionKindMulti
	}
	return enums.SelectionKindSingle
}

// Option is one purchasable customization from the catalog.
type Option struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
}

// Group is one catalog category with its active options.
type Group struct {
	Category string              `json:"category"`
	Kind     enums.SelectionKind `json:"kind"`
	Options  []Option            `json:"options"`
}

// GroupByCategory groups active options by category in first-seen order.
// Options with a blank category land in OtherCategory.
func GroupByCategory(options []Option) []Group {
	var groups []Group
	index := map[string]int{}
	for _, opt := range options {
		if !opt.IsActive {
			continue
		}
		category := strings.TrimSpace(opt.Category)
		if category == "" {
			category = OtherCategory
		}
		opt.Category = category
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, Group{Category: category, Kind: KindOf(category)})
		}
		groups[i].Options = append(groups[i].Options, opt)
	}
	return groups
}

// FindOption looks an option up by id within the active catalog.
func FindOption(groups []Group, category string, id int64) (Option, bool) {
	for _, g := range groups {
		if g.Category != category {
			continue
		}
		for _, opt := range g.Options {
			if opt.ID == id {
				return opt, true
			}
		}
	}
	return Option{}, false
}
