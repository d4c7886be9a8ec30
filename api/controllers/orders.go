package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cakehouse/storefront/api/responses"
	"github.com/cakehouse/storefront/internal/orders"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
)

// OrderStatus looks an order up by number. It needs no session: the order
// number is what the customer holds after checkout.
func OrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		tracking, err := svc.Track(r.Context(), chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracking)
	}
}
