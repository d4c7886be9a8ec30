package orders

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cakehouse/storefront/pkg/enums"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/shopapi"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const maxOrderNumberLength = 64

var orderNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

type tracker interface {
	TrackOrder(ctx context.Context, orderNumber string) (*shopapi.TrackedOrder, error)
}

// Service looks placed orders up by their order number.
type Service interface {
	Track(ctx context.Context, orderNumber string) (*Tracking, error)
}

// Tracking is an order's public status as shown after checkout.
type Tracking struct {
	OrderNumber  string            `json:"order_number"`
	Status       enums.OrderStatus `json:"status"`
	StatusLabel  string            `json:"status_label"`
	Final        bool              `json:"final"`
	CustomerName string            `json:"customer_name,omitempty"`
	DeliveryDate string            `json:"delivery_date,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	TotalDisplay string            `json:"total_display"`
	CreatedAt    string            `json:"created_at,omitempty"`
}

type service struct {
	tracker tracker
	logg    *logger.Logger
}

func NewService(tracker tracker, logg *logger.Logger) (Service, error) {
	if tracker == nil {
		return nil, fmt.Errorf("order tracker required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tracker: tracker, logg: logg}, nil
}

func (s *service) Track(ctx context.Context, orderNumber string) (*Tracking, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if err := validateOrderNumber(orderNumber); err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, orderNumber)
	order, err := s.tracker.TrackOrder(ctx, orderNumber)
	if err != nil {
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order lookup failed")
		}
		return nil, err
	}

	status := order.Status
	if !status.IsValid() {
		s.logg.Warn(s.logg.WithField(ctx, "status", string(status)), "unknown order status; showing pending")
		status = enums.OrderStatusPending
	}
	return &Tracking{
		OrderNumber:  order.OrderNumber,
		Status:       status,
		StatusLabel:  status.Label(),
		Final:        status.IsFinal(),
		CustomerName: order.CustomerName,
		DeliveryDate: order.DeliveryDate,
		Total:        order.TotalPrice,
		TotalDisplay: types.FormatKSh(order.TotalPrice),
		CreatedAt:    order.CreatedAt,
	}, nil
}

func validateOrderNumber(orderNumber string) error {
	if orderNumber == "" || len(orderNumber) > maxOrderNumberLength || !orderNumberPattern.MatchString(orderNumber) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order number").
			WithDetails(map[string]any{"order_number": orderNumber})
	}
	return nil
}
