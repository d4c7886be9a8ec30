package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cakehouse/storefront/pkg/enums"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL              = "http://localhost:8000/api"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	idempotencyHeader           = "Idempotency-Key"
)

// Client talks to the cake shop REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client
}

// CustomizationOption is one catalog option as served by the backend.
type CustomizationOption struct {
	ID          int64
	Category    string
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	IsActive    bool
}

// OrderItem is one basket line in an order-creation request.
type OrderItem struct {
	CakeID          *int64              `json:"cake_id"`
	Name            string              `json:"name"`
	Quantity        int                 `json:"quantity"`
	UnitPrice       json.Number         `json:"unit_price"`
	Subtotal        json.Number         `json:"subtotal"`
	Description     string              `json:"customization_description,omitempty"`
	Customizations  map[string][]string `json:"customizations,omitempty"`
	DeliveryDate    string              `json:"delivery_date,omitempty"`
	SpecialRequests string              `json:"special_requests,omitempty"`
}

// CreateOrderRequest is the payload posted to the order-creation endpoint.
type CreateOrderRequest struct {
	CustomerName        string      `json:"customer_name"`
	CustomerEmail       string      `json:"customer_email"`
	CustomerPhone       string      `json:"customer_phone"`
	DeliveryAddress     string      `json:"delivery_address"`
	DeliveryDate        string      `json:"delivery_date"`
	DeliveryTime        string      `json:"delivery_time,omitempty"`
	PaymentMethod       string      `json:"payment_method,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	Items               []OrderItem `json:"items"`
	Subtotal            json.Number `json:"subtotal"`
	DeliveryFee         json.Number `json:"delivery_fee"`
	Tax                 json.Number `json:"tax"`
	Total               json.Number `json:"total"`
	Currency            string      `json:"currency"`
}

// Order is the backend's confirmation of a created order.
type Order struct {
	ID          int64             `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalPrice  decimal.Decimal   `json:"total_price"`
}

// ListCakes fetches the cake catalog. The backend answers with either a bare
// array or a paginated envelope.
func (c *Client) ListCakes(ctx context.Context) ([]types.Cake, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop api client not configured")
	}

	body, err := c.get(ctx, "cakes")
	if err != nil {
		return nil, err
	}

	raw, err := unwrapList(body, "cakes")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cakes response")
	}

	var apiCakes []struct {
		ID          int64            `json:"id"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Category    string           `json:"category"`
		ImageURL    string           `json:"image_url"`
		BasePrice   *decimal.Decimal `json:"base_price"`
		Price       *decimal.Decimal `json:"price"`
		Available   *bool            `json:"available"`
		IsAvailable *bool            `json:"is_available"`
	}
	if err := json.Unmarshal(raw, &apiCakes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cakes response")
	}

	cakes := make([]types.Cake, 0, len(apiCakes))
	for _, ac := range apiCakes {
		price := decimal.Zero
		switch {
		case ac.BasePrice != nil:
			price = *ac.BasePrice
		case ac.Price != nil:
			price = *ac.Price
		}
		cakes = append(cakes, types.Cake{
			ID:          ac.ID,
			Name:        ac.Name,
			Description: ac.Description,
			Category:    ac.Category,
			ImageURL:    ac.ImageURL,
			Price:       price,
			IsAvailable: flagOrTrue(ac.Available, ac.IsAvailable),
		})
	}
	return cakes, nil
}

type apiOption struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
	Active      *bool           `json:"active"`
}

// ListCustomizations fetches every customization option. Both the flat list
// and the grouped `[{category, options}]` shapes are accepted; grouped options
// inherit the group's category when they carry none.
func (c *Client) ListCustomizations(ctx context.Context) ([]CustomizationOption, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop api client not configured")
	}

	body, err := c.get(ctx, "customizations")
	if err != nil {
		return nil, err
	}

	raw, err := unwrapList(body, "customizations")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode customizations response")
	}

	var entries []struct {
		apiOption
		Options []apiOption `json:"options"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode customizations response")
	}

	options := make([]CustomizationOption, 0, len(entries))
	for _, entry := range entries {
		if entry.Options == nil {
			options = append(options, entry.apiOption.toOption(""))
			continue
		}
		for _, opt := range entry.Options {
			options = append(options, opt.toOption(entry.Category))
		}
	}
	return options, nil
}

func (o apiOption) toOption(groupCategory string) CustomizationOption {
	category := o.Category
	if strings.TrimSpace(category) == "" {
		category = groupCategory
	}
	return CustomizationOption{
		ID:          o.ID,
		Category:    category,
		Name:        o.Name,
		Description: o.Description,
		ImageURL:    o.ImageURL,
		Price:       o.Price,
		IsActive:    flagOrTrue(o.IsActive, o.Active),
	}
}

// CreateOrder submits one order. A non-empty idempotencyKey is forwarded so a
// backend that honours it can deduplicate resubmissions.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop api client not configured")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("orders"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		httpReq.Header.Set(idempotencyHeader, key)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp, "order request failed")
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}
	return &order, nil
}

// TrackedOrder is the public view of an order, looked up by its number.
type TrackedOrder struct {
	OrderNumber  string            `json:"order_number"`
	Status       enums.OrderStatus `json:"status"`
	CustomerName string            `json:"customer_name"`
	DeliveryDate string            `json:"delivery_date"`
	TotalPrice   decimal.Decimal   `json:"total_price"`
	CreatedAt    string            `json:"created_at"`
}

// TrackOrder fetches an order by its number. An unknown number is CodeNotFound.
func (c *Client) TrackOrder(ctx context.Context, orderNumber string) (*TrackedOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop api client not configured")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	body, err := c.get(ctx, "orders/track/"+url.PathEscape(orderNumber))
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeRejected) && statusOf(err) == http.StatusNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found").
				WithDetails(map[string]any{"order_number": orderNumber})
		}
		return nil, err
	}

	var order TrackedOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order tracking response")
	}
	if order.OrderNumber == "" {
		order.OrderNumber = orderNumber
	}
	return &order, nil
}

func statusOf(err error) int {
	typed := pkgerrors.As(err)
	if typed == nil {
		return 0
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return 0
	}
	status, _ := details["status"].(int)
	return status
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", path))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, path+" request failed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read %s response", path))
	}
	return body, nil
}

// statusError maps a non-success response onto the storefront error codes:
// 400/422 are validation failures, other 4xx are rejections and 5xx are
// dependency failures.
func statusError(resp *http.Response, msg string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	serverMsg := extractMessage(body)
	details := map[string]any{"status": resp.StatusCode}
	if serverMsg != "" {
		details["server_message"] = serverMsg
	}
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, messageOr(serverMsg, msg)).WithDetails(details)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return pkgerrors.Wrap(pkgerrors.CodeRejected, cause, messageOr(serverMsg, msg)).WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, msg).WithDetails(details)
	}
}

// extractMessage reads `{"error": "..."}`, `{"error": {"message": "..."}}` or
// `{"message": "..."}`.
func extractMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Error) > 0 {
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return envelope.Message
}

func messageOr(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}

// unwrapList returns the JSON array either at the top level or under key.
func unwrapList(body []byte, key string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	for _, k := range []string{key, "data", "items"} {
		if raw, ok := envelope[k]; ok && len(raw) > 0 {
			return raw, nil
		}
	}
	return json.RawMessage("[]"), nil
}

func flagOrTrue(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil {
			return *f
		}
	}
	return true
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}
