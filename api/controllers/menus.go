package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/menus"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

// MenuRequest is the canteen manager's menu form.
type MenuRequest struct {
	Breakfast   string `json:"breakfast" validate:"max=2000"`
	LunchDinner string `json:"lunchDinner" validate:"max=2000"`
	Snacks      string `json:"snacks" validate:"max=2000"`
	Beverage    string `json:"beverage" validate:"max=2000"`
	Notes       string `json:"notes" validate:"max=2000"`
}

func UpsertMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MenuRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menu, err := svc.Upsert(r.Context(), strings.TrimSpace(chi.URLParam(r, "date")), menus.Content{
			Breakfast:   strings.TrimSpace(req.Breakfast),
			LunchDinner: strings.TrimSpace(req.LunchDinner),
			Snacks:      strings.TrimSpace(req.Snacks),
			Beverage:    strings.TrimSpace(req.Beverage),
			Notes:       strings.TrimSpace(req.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

func GetMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu, err := svc.Get(r.Context(), strings.TrimSpace(chi.URLParam(r, "date")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

func TodayMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu, err := svc.Today(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

// ListMenus returns menus between the from and to days inclusive.
func ListMenus(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDay(r, "from", "")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDay(r, "to", "")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
