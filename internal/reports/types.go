package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Overview is the admin headline view of the ledger.
type Overview struct {
	TotalIssued    int             `json:"totalIssued"`
	TotalRedeemed  int             `json:"totalRedeemed"`
	IssuedToday    int             `json:"issuedToday"`
	RedeemedToday  int             `json:"redeemedToday"`
	RedemptionRate decimal.Decimal `json:"redemptionRate"`
}

// MealCounts counts redeemed main-meal coupons.
type MealCounts struct {
	Breakfast   int `json:"breakfast"`
	LunchDinner int `json:"lunchDinner"`
}

// RedeemedEntry is one redemption on the canteen day sheet.
type RedeemedEntry struct {
	CouponID     string    `json:"couponId"`
	EmployeeName string    `json:"employeeName"`
	IsGuest      bool      `json:"isGuest"`
	RedeemedAt   time.Time `json:"redeemedAt"`
}

// RedeemedGroup collects a day's redemptions of one meal type.
type RedeemedGroup struct {
	CouponType enums.CouponType `json:"couponType"`
	Coupons    []RedeemedEntry  `json:"coupons"`
}

// CanteenStats is the canteen manager dashboard.
type CanteenStats struct {
	Date   string          `json:"date"`
	Today  MealCounts      `json:"today"`
	Month  MealCounts      `json:"month"`
	Groups []RedeemedGroup `json:"groups"`
}

type Totals struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type GuestStats struct {
	Generated int `json:"generated"`
	Redeemed  int `json:"redeemed"`
}

// EmployeeDashboard is everything the employee home screen shows.
type EmployeeDashboard struct {
	NextAvailable   []coupons.CouponDTO `json:"nextAvailable"`
	Totals          Totals              `json:"totals"`
	Guest           GuestStats          `json:"guest"`
	RedeemedHistory []coupons.CouponDTO `json:"redeemedHistory"`
	GuestHistory    []coupons.CouponDTO `json:"guestHistory"`
}
