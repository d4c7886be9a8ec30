package enums

import "fmt"

// SelectionKind says how many options a customization category accepts.
type SelectionKind string

const (
	SelectionKindSingle SelectionKind = "single"
	SelectionKindMulti  SelectionKind = "multi"
)

var validSelectionKinds = []SelectionKind{
	SelectionKindSingle,
	SelectionKindMulti,
}

// String implements fmt.Stringer.
func (s SelectionKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SelectionKind.
func (s SelectionKind) IsValid() bool {
	for _, candidate := range validSelectionKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSelectionKind converts raw input into a SelectionKind.
func ParseSelectionKind(value string) (SelectionKind, error) {
	for _, candidate := range validSelectionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selection kind %q", value)
}
