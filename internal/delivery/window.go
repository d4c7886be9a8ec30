package delivery

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
)

const dateLayout = "2006-01-02"

// Window bounds acceptable delivery dates relative to today.
type Window struct {
	MinLeadDays      int
	MaxHorizonMonths int
}

// DefaultWindow accepts tomorrow through three months out.
func DefaultWindow() Window {
	return Window{MinLeadDays: 1, MaxHorizonMonths: 3}
}

// Bounds returns the first and last acceptable delivery days for now.
func (w Window) Bounds(now time.Time) (earliest, latest time.Time) {
	today := startOfDay(now)
	return today.AddDate(0, 0, w.MinLeadDays), today.AddDate(0, w.MaxHorizonMonths, 0)
}

// Check returns a CodeDeliveryWindow error when date falls outside the window.
func (w Window) Check(date, now time.Time) error {
	earliest, latest := w.Bounds(now)
	day := startOfDay(date.In(now.Location()))
	if day.Before(earliest) || day.After(latest) {
		return pkgerrors.New(
			pkgerrors.CodeDeliveryWindow,
			fmt.Sprintf("delivery date must be between %s and %s", earliest.Format(dateLayout), latest.Format(dateLayout)),
		).WithDetails(map[string]any{
			"delivery_date": day.Format(dateLayout),
			"earliest":      earliest.Format(dateLayout),
			"latest":        latest.Format(dateLayout),
		})
	}
	return nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// Calendar dates are interpreted in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery date is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery date %q", raw)).
		WithDetails(map[string]any{"expected": dateLayout})
}

// FormatDate renders a delivery day the way it is stored on line items.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
