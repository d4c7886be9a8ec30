package controllers

import (
	"net/http"

	"github.com/cakehouse/storefront/api/responses"
	"github.com/cakehouse/storefront/api/validators"
	"github.com/cakehouse/storefront/internal/checkout"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/types"
)

type checkoutResponse struct {
	*checkout.Confirmation
	TotalDisplay string `json:"total_display"`
}

// Checkout submits the session basket as one order. Form rules are enforced
// by the checkout service so the CLI shares them.
func Checkout(opener BasketOpener, svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var form checkout.Form
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := openBasket(w, r, opener, logg)
		if !ok {
			return
		}

		confirmation, err := svc.Submit(r.Context(), store, form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Confirmation: confirmation,
			TotalDisplay: types.FormatKSh(confirmation.Summary.Total),
		})
	}
}
