package customization

import (
	"github.com/cakehouse/storefront/pkg/enums"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Selection is the state of one category: Single or Multi.
type Selection interface {
	Kind() enums.SelectionKind
	// Selected lists the chosen options in selection order.
	Selected() []Option
}

// Single holds at most one option; a nil Option means the category is cleared.
type Single struct {
	Option *Option
}

func (Single) Kind() enums.SelectionKind { return enums.SelectionKindSingle }

func (s Single) Selected() []Option {
	if s.Option == nil {
		return nil
	}
	return []Option{*s.Option}
}

// Multi holds options in the order they were picked.
type Multi struct {
	Options []Option
}

func (Multi) Kind() enums.SelectionKind { return enums.SelectionKindMulti }

func (m Multi) Selected() []Option {
	return append([]Option(nil), m.Options...)
}

// Selections tracks in-progress choices keyed by category. Categories keep the
// order in which they were first touched. Not safe for concurrent use.
type Selections struct {
	order []string
	state map[string]Selection
}

func NewSelections() *Selections {
	return &Selections{state: map[string]Selection{}}
}

// Select toggles option within category. Multi-select categories add or
// remove the option by id; single-select categories replace the current
// option, or clear it when the same id is selected again.
func (s *Selections) Select(category string, option Option) {
	option.Category = category
	current, seen := s.state[category]
	if !seen {
		s.order = append(s.order, category)
	}

	if KindOf(category) == enums.SelectionKindMulti {
		var picked []Option
		if m, ok := current.(Multi); ok {
			picked = m.Options
		}
		s.state[category] = Multi{Options: toggle(picked, option)}
		return
	}

	if single, ok := current.(Single); ok && single.Option != nil && single.Option.ID == option.ID {
		s.state[category] = Single{}
		return
	}
	s.state[category] = Single{Option: &option}
}

func toggle(picked []Option, option Option) []Option {
	out := make([]Option, 0, len(picked)+1)
	removed := false
	for _, p := range picked {
		if p.ID == option.ID {
			removed = true
			continue
		}
		out = append(out, p)
	}
	if !removed {
		out = append(out, option)
	}
	return out
}

// Get returns the selection for category, if it was ever touched.
func (s *Selections) Get(category string) (Selection, bool) {
	sel, ok := s.state[category]
	return sel, ok
}

// IsSelected reports whether the option id is currently chosen in category.
func (s *Selections) IsSelected(category string, optionID int64) bool {
	sel, ok := s.state[category]
	if !ok {
		return false
	}
	for _, opt := range sel.Selected() {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Categories lists touched categories in first-touch order.
func (s *Selections) Categories() []string {
	return append([]string(nil), s.order...)
}

// ToLineItemCustomizations flattens the selections in category order, then
// selection order within a category. Cleared categories contribute nothing.
func (s *Selections) ToLineItemCustomizations() []types.Customization {
	var out []types.Customization
	for _, category := range s.order {
		for _, opt := range s.state[category].Selected() {
			out = append(out, types.Customization{
				Category: category,
				Name:     opt.Name,
				Price:    opt.Price,
			})
		}
	}
	return out
}

// TotalAdjustment sums the price of every selected option.
func (s *Selections) TotalAdjustment() decimal.Decimal {
	total := decimal.Zero
	for _, category := range s.order {
		for _, opt := range s.state[category].Selected() {
			total = total.Add(opt.Price)
		}
	}
	return total
}

// Reset clears every selection.
func (s *Selections) Reset() {
	s.order = nil
	s.state = map[string]Selection{}
}
