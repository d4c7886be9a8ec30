package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cakehouse/storefront/internal/delivery"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/enums"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/shopapi"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/cakehouse/storefront/pkg/validation"
	"github.com/shopspring/decimal"
)

// Checkout outcomes reported to the metrics observer.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
	OutcomeClearError = "clear_failed"
)

// Basket is the slice of the basket store checkout depends on.
type Basket interface {
	Items() []types.LineItem
	RemoveItems(ctx context.Context, cartItemIDs ...string) error
}

type orderClient interface {
	CreateOrder(ctx context.Context, req shopapi.CreateOrderRequest, idempotencyKey string) (*shopapi.Order, error)
}

type outcomeObserver interface {
	ObserveCheckout(outcome string)
}

// Form is the customer and delivery information collected at checkout.
type Form struct {
	CustomerName        string `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail       string `json:"customer_email" validate:"required,email"`
	CustomerPhone       string `json:"customer_phone" validate:"required,phone"`
	DeliveryAddress     string `json:"delivery_address" validate:"required,min=10,max=500"`
	DeliveryDate        string `json:"delivery_date" validate:"required"`
	DeliveryTime        string `json:"delivery_time,omitempty" validate:"max=50"`
	PaymentMethod       string `json:"payment_method,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty" validate:"max=1000"`
}

func (f Form) normalized() Form {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerEmail = strings.TrimSpace(f.CustomerEmail)
	f.CustomerPhone = validation.NormalizePhone(f.CustomerPhone)
	f.DeliveryAddress = strings.TrimSpace(f.DeliveryAddress)
	f.DeliveryDate = strings.TrimSpace(f.DeliveryDate)
	f.DeliveryTime = strings.TrimSpace(f.DeliveryTime)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	f.SpecialInstructions = strings.TrimSpace(f.SpecialInstructions)
	return f
}

// Confirmation is returned after the backend accepted an order.
type Confirmation struct {
	OrderID        int64             `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Status         enums.OrderStatus `json:"status"`
	Summary        pricing.Summary   `json:"summary"`
	IdempotencyKey string            `json:"idempotency_key"`
	BasketCleared  bool              `json:"basket_cleared"`
}

// Config carries the order-level constants checkout applies.
type Config struct {
	Rates    pricing.Rates
	Window   delivery.Window
	Currency enums.Currency
	Location *time.Location
	Now      func() time.Time
}

// Service submits a basket as one order.
type Service interface {
	// Prepare validates the basket and form and returns the request that
	// Submit would send, without sending it.
	Prepare(items []types.LineItem, form Form) (shopapi.CreateOrderRequest, pricing.Summary, error)
	Submit(ctx context.Context, basket Basket, form Form) (*Confirmation, error)
}

type service struct {
	client  orderClient
	cfg     Config
	logg    *logger.Logger
	metrics outcomeObserver
}

// NewService builds the checkout service. metrics may be nil.
func NewService(client orderClient, cfg Config, logg *logger.Logger, metrics outcomeObserver) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("order client required")
	}
	if cfg.Rates == (pricing.Rates{}) {
		cfg.Rates = pricing.DefaultRates()
	}
	if cfg.Window == (delivery.Window{}) {
		cfg.Window = delivery.DefaultWindow()
	}
	if cfg.Currency == "" {
		cfg.Currency = enums.CurrencyKES
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{client: client, cfg: cfg, logg: logg, metrics: metrics}, nil
}

func (s *service) Prepare(items []types.LineItem, form Form) (shopapi.CreateOrderRequest, pricing.Summary, error) {
	if len(items) == 0 {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}

	form = form.normalized()
	if err := validation.Struct(form); err != nil {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, err
	}

	payment, err := enums.ParsePaymentMethod(form.PaymentMethod)
	if err != nil {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]string{"payment_method": "must be one of COD, Card, M-Pesa"})
	}

	now := s.cfg.Now().In(s.cfg.Location)
	date, err := delivery.ParseDate(form.DeliveryDate, s.cfg.Location)
	if err != nil {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, err
	}
	if err := s.cfg.Window.Check(date, now); err != nil {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, err
	}

	if err := ValidateLineLimits(items); err != nil {
		return shopapi.CreateOrderRequest{}, pricing.Summary{}, err
	}

	summary := pricing.Quote(items, s.cfg.Rates)
	req := shopapi.CreateOrderRequest{
		CustomerName:        form.CustomerName,
		CustomerEmail:       form.CustomerEmail,
		CustomerPhone:       form.CustomerPhone,
		DeliveryAddress:     form.DeliveryAddress,
		DeliveryDate:        delivery.FormatDate(date),
		DeliveryTime:        form.DeliveryTime,
		PaymentMethod:       payment.String(),
		SpecialInstructions: form.SpecialInstructions,
		Items:               make([]shopapi.OrderItem, 0, len(items)),
		Subtotal:            money(summary.Subtotal),
		DeliveryFee:         money(summary.DeliveryFee),
		Tax:                 money(summary.Tax),
		Total:               money(summary.Total),
		Currency:            s.cfg.Currency.String(),
	}
	for _, item := range items {
		req.Items = append(req.Items, orderItem(item))
	}
	return req, summary, nil
}

func (s *service) Submit(ctx context.Context, basket Basket, form Form) (*Confirmation, error) {
	if basket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "basket required")
	}

	items := basket.Items()
	req, summary, err := s.Prepare(items, form)
	if err != nil {
		s.observe(OutcomeInvalid)
		return nil, err
	}

	key := IdempotencyKey(items)
	ctx = s.logg.WithField(ctx, "idempotency_key", key)

	order, err := s.client.CreateOrder(ctx, req, key)
	if err != nil {
		outcome := OutcomeFailed
		if pkgerrors.HasCode(err, pkgerrors.CodeRejected) || pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			outcome = OutcomeRejected
		}
		s.observe(outcome)
		s.logg.Error(ctx, "order submission failed", err)
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	confirmation := &Confirmation{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		Summary:        summary,
		IdempotencyKey: key,
		BasketCleared:  true,
	}
	if confirmation.Status == "" {
		confirmation.Status = enums.OrderStatusPending
	}

	// Only the submitted lines leave the basket; anything added while the
	// order was in flight stays. The order exists on the backend, so a failed
	// removal must not hide it.
	if err := basket.RemoveItems(ctx, submittedIDs(items)...); err != nil {
		confirmation.BasketCleared = false
		s.observe(OutcomeClearError)
		s.logg.Error(ctx, "clear basket after checkout", err)
		return confirmation, nil
	}

	s.observe(OutcomeSuccess)
	s.logg.Info(ctx, "order submitted")
	return confirmation, nil
}

func submittedIDs(items []types.LineItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CartItemID)
	}
	return ids
}

func (s *service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome)
	}
}

// IdempotencyKey derives a stable key from the basket's lines and quantities,
// so resubmitting an unchanged basket reuses the key.
func IdempotencyKey(items []types.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.CartItemID+":"+strconv.Itoa(item.Quantity))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "basket-" + hex.EncodeToString(sum[:16])
}

func orderItem(item types.LineItem) shopapi.OrderItem {
	unit := pricing.UnitPrice(item)
	out := shopapi.OrderItem{
		CakeID:      item.CakeID,
		Name:        item.Name,
		Quantity:    item.Quantity,
		UnitPrice:   money(unit),
		Subtotal:    money(pricing.PriceOf(item)),
		Description: DescribeCustomizations(item.Customizations),
	}
	if len(item.Customizations) > 0 {
		out.Customizations = map[string][]string{}
		for _, c := range item.Customizations {
			out.Customizations[c.Category] = append(out.Customizations[c.Category], c.Name)
		}
	}
	if item.Metadata != nil {
		out.DeliveryDate = item.Metadata.DeliveryDate
		out.SpecialRequests = item.Metadata.SpecialRequests
	}
	return out
}

// DescribeCustomizations flattens customizations into one line, grouping names
// by category in first-seen order: "Flavor: Vanilla; Topping: Sprinkles, Nuts".
func DescribeCustomizations(customizations []types.Customization) string {
	var order []string
	names := map[string][]string{}
	for _, c := range customizations {
		if _, ok := names[c.Category]; !ok {
			order = append(order, c.Category)
		}
		names[c.Category] = append(names[c.Category], c.Name)
	}
	parts := make([]string, 0, len(order))
	for _, category := range order {
		parts = append(parts, category+": "+strings.Join(names[category], ", "))
	}
	return strings.Join(parts, "; ")
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
