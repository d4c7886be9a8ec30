package controllers

import (
	"net/http"

	"github.com/cakehouse/storefront/api/responses"
	"github.com/cakehouse/storefront/api/validators"
	"github.com/cakehouse/storefront/internal/catalog"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/pagination"
	"github.com/cakehouse/storefront/pkg/types"
)

type cakeResponse struct {
	types.Cake
	PriceDisplay string `json:"price_display"`
}

type cakePage struct {
	Cakes      []cakeResponse `json:"cakes"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CatalogCakes lists cakes a page at a time. `available=true` hides
// unavailable cakes; `limit` and `cursor` select the page.
func CatalogCakes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		onlyAvailable, err := validators.ParseQueryBool(r, "available", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cakes, err := svc.Cakes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed := make([]cakeResponse, 0, len(cakes))
		for _, c := range cakes {
			if onlyAvailable && !c.IsAvailable {
				continue
			}
			listed = append(listed, cakeResponse{Cake: c, PriceDisplay: types.FormatKSh(c.Price)})
		}

		page, err := pagination.Slice(listed, func(c cakeResponse) int64 { return c.ID }, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		responses.WriteSuccess(w, cakePage{Cakes: page.Items, NextCursor: page.NextCursor})
	}
}

// CatalogCustomizations returns active options grouped by category, each
// group tagged with its selection kind.
func CatalogCustomizations(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		groups, err := svc.Groups(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}
