package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

type counter interface {
	Count(ctx context.Context) (int64, error)
}

// SettingsView is the super admin's read-only view of the deployment.
type SettingsView struct {
	SuperAdminID      string         `json:"superAdminId"`
	Timezone          string         `json:"timezone"`
	GuestPassDailyMax int            `json:"guestPassDailyMax"`
	MonthlyLimits     map[string]int `json:"monthlyLimits"`
	Employees         int64          `json:"employees"`
	Contractors       int64          `json:"contractors"`
	InsightsEnabled   bool           `json:"insightsEnabled"`
	MailEnabled       bool           `json:"mailEnabled"`
}

func Settings(cfg *config.Config, employeeCount, contractorCount counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees, err := employeeCount.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contractors, err := contractorCount.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limits := map[string]int{}
		for _, t := range enums.CouponTypeDisplayOrder {
			if n := t.MonthlyLimit(); n > 0 {
				limits[string(t)] = n
			}
		}
		guestMax := cfg.Ledger.GuestPassDailyMax
		if guestMax <= 0 {
			guestMax = 5
		}

		responses.WriteSuccess(w, SettingsView{
			SuperAdminID:      cfg.Ledger.SuperAdminID,
			Timezone:          cfg.Ledger.Timezone,
			GuestPassDailyMax: guestMax,
			MonthlyLimits:     limits,
			Employees:         employees,
			Contractors:       contractors,
			InsightsEnabled:   cfg.Insights.Enabled(),
			MailEnabled:       cfg.Sendgrid.Enabled(),
		})
	}
}
