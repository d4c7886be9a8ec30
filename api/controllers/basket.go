package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cakehouse/storefront/api/middleware"
	"github.com/cakehouse/storefront/api/responses"
	"github.com/cakehouse/storefront/api/validators"
	"github.com/cakehouse/storefront/internal/basket"
	"github.com/cakehouse/storefront/internal/catalog"
	"github.com/cakehouse/storefront/internal/customization"
	"github.com/cakehouse/storefront/internal/delivery"
	"github.com/cakehouse/storefront/internal/pricing"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/types"
)

// BasketOpener hands out the basket bound to a session.
type BasketOpener interface {
	Open(ctx context.Context, sessionID string) *basket.Store
}

type basketLine struct {
	Item             types.LineItem  `json:"item"`
	LineTotal        decimal.Decimal `json:"line_total"`
	LineTotalDisplay string          `json:"line_total_display"`
}

type basketResponse struct {
	Items   []basketLine    `json:"items"`
	Summary pricing.Summary `json:"summary"`
	Display basketDisplay   `json:"display"`
}

type basketDisplay struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
}

type itemResponse struct {
	Line   basketLine     `json:"line"`
	Basket basketResponse `json:"basket"`
}

func newBasketResponse(store *basket.Store, rates pricing.Rates) basketResponse {
	items, summary := store.Snapshot(rates)
	lines := make([]basketLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, newBasketLine(item))
	}
	return basketResponse{
		Items:   lines,
		Summary: summary,
		Display: basketDisplay{
			Subtotal:    types.FormatKSh(summary.Subtotal),
			DeliveryFee: types.FormatKSh(summary.DeliveryFee),
			Tax:         types.FormatKSh(summary.Tax),
			Total:       types.FormatKSh(summary.Total),
		},
	}
}

func newBasketLine(item types.LineItem) basketLine {
	total := pricing.PriceOf(item)
	return basketLine{Item: item, LineTotal: total, LineTotalDisplay: types.FormatKSh(total)}
}

func openBasket(w http.ResponseWriter, r *http.Request, opener BasketOpener, logg *logger.Logger) (*basket.Store, bool) {
	if opener == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "basket storage unavailable"))
		return nil, false
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
		return nil, false
	}
	return opener.Open(r.Context(), sessionID), true
}

// BasketGet returns the session basket with derived totals.
func BasketGet(opener BasketOpener, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openBasket(w, r, opener, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newBasketResponse(store, rates))
	}
}

// BasketClear empties the session basket.
func BasketClear(opener BasketOpener, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openBasket(w, r, opener, logg)
		if !ok {
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(store, rates))
	}
}

type selectionPayload struct {
	Category string `json:"category" validate:"required,max=100"`
	OptionID int64  `json:"option_id" validate:"required,gt=0"`
}

type addItemRequest struct {
	CakeID         int64              `json:"cake_id" validate:"required,gt=0"`
	Quantity       int                `json:"quantity" validate:"gte=0,lte=100"`
	Customizations []selectionPayload `json:"customizations" validate:"omitempty,max=50,dive"`
}

// BasketAddItem adds a catalog cake. Prices come from the catalog, never from
// the request. Repeated adds create separate lines.
func BasketAddItem(opener BasketOpener, svc catalog.Service, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		cake, err := availableCake(r.Context(), svc, payload.CakeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		selections, err := resolveSelections(r.Context(), svc, payload.Customizations)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := cake.AsLineItem(payload.Quantity)
		item.Customizations = selections.ToLineItemCustomizations()
		addAndRespond(w, r, opener, item, rates, logg)
	}
}

type customItemRequest struct {
	CakeID          int64              `json:"cake_id" validate:"required,gt=0"`
	Quantity        int                `json:"quantity" validate:"required"`
	DeliveryDate    string             `json:"delivery_date" validate:"required"`
	SpecialRequests string             `json:"special_requests"`
	Selections      []selectionPayload `json:"selections" validate:"omitempty,max=50,dive"`
}

// BasketAddCustom runs a finished customization draft through the wizard and
// adds the resulting line.
func BasketAddCustom(opener BasketOpener, svc catalog.Service, wizard *customization.Wizard, rates pricing.Rates, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload customItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil || wizard == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customization unavailable"))
			return
		}

		cake, err := availableCake(r.Context(), svc, payload.CakeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		selections, err := resolveSelections(r.Context(), svc, payload.Selections)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := delivery.ParseDate(payload.DeliveryDate, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := wizard.Build(customization.Draft{
			Cake:            cake,
			Quantity:        payload.Quantity,
			DeliveryDate:    date,
			SpecialRequests: payload.SpecialRequests,
			Selections:      selections,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addAndRespond(w, r, opener, item, rates, logg)
	}
}

func addAndRespond(w http.ResponseWriter, r *http.Request, opener BasketOpener, item types.LineItem, rates pricing.Rates, logg *logger.Logger) {
	store, ok := openBasket(w, r, opener, logg)
	if !ok {
		return
	}
	added, err := store.AddItem(r.Context(), item)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, itemResponse{
		Line:   newBasketLine(added),
		Basket: newBasketResponse(store, rates),
	})
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,lte=100"`
	Delta    *int `json:"delta" validate:"omitempty,gte=-100,lte=100"`
}

// BasketUpdateItem sets a line quantity (`quantity`) or shifts it (`delta`).
// Results below one clamp to one; an unknown id leaves the basket unchanged.
func BasketUpdateItem(opener BasketOpener, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartItemID := strings.TrimSpace(chi.URLParam(r, "cartItemId"))
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (payload.Quantity == nil) == (payload.Delta == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of quantity or delta is required"))
			return
		}

		store, ok := openBasket(w, r, opener, logg)
		if !ok {
			return
		}

		var err error
		if payload.Quantity != nil {
			err = store.UpdateQuantity(r.Context(), cartItemID, *payload.Quantity)
		} else {
			err = store.AdjustQuantity(r.Context(), cartItemID, *payload.Delta)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(store, rates))
	}
}

// BasketRemoveItem drops a line. Removing an unknown id succeeds.
func BasketRemoveItem(opener BasketOpener, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartItemID := strings.TrimSpace(chi.URLParam(r, "cartItemId"))
		store, ok := openBasket(w, r, opener, logg)
		if !ok {
			return
		}
		if err := store.RemoveItem(r.Context(), cartItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(store, rates))
	}
}

func availableCake(ctx context.Context, svc catalog.Service, id int64) (types.Cake, error) {
	cake, err := svc.Cake(ctx, id)
	if err != nil {
		return types.Cake{}, err
	}
	if !cake.IsAvailable {
		return types.Cake{}, pkgerrors.New(pkgerrors.CodeConflict, "cake is not available").
			WithDetails(map[string]any{"cake_id": id})
	}
	return cake, nil
}

// resolveSelections looks each requested option up in the catalog. A repeated
// option is applied once so it cannot toggle itself back off.
func resolveSelections(ctx context.Context, svc catalog.Service, picks []selectionPayload) (*customization.Selections, error) {
	selections := customization.NewSelections()
	for _, pick := range picks {
		category := strings.TrimSpace(pick.Category)
		if selections.IsSelected(category, pick.OptionID) {
			continue
		}
		opt, err := svc.Option(ctx, category, pick.OptionID)
		if err != nil {
			return nil, err
		}
		selections.Select(category, opt)
	}
	return selections, nil
}
