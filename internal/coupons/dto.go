package coupons

import (
	"time"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

// CouponDTO is the public view of a coupon.
type CouponDTO struct {
	CouponID           string             `json:"couponId"`
	EmployeeID         *int64             `json:"employeeId,omitempty"`
	ContractorID       *int64             `json:"contractorId,omitempty"`
	DateIssued         time.Time          `json:"dateIssued"`
	Status             enums.CouponStatus `json:"status"`
	RedeemDate         *time.Time         `json:"redeemDate"`
	RedemptionCode     string             `json:"redemptionCode"`
	CouponType         enums.CouponType   `json:"couponType"`
	IsGuestCoupon      bool               `json:"isGuestCoupon"`
	SharedByEmployeeID *int64             `json:"sharedByEmployeeId,omitempty"`
}

func FromModel(m models.Coupon) CouponDTO {
	return CouponDTO{
		CouponID:           m.CouponID,
		EmployeeID:         m.EmployeeID,
		ContractorID:       m.ContractorID,
		DateIssued:         m.DateIssued,
		Status:             m.Status,
		RedeemDate:         m.RedeemDate,
		RedemptionCode:     m.RedemptionCode,
		CouponType:         m.CouponType,
		IsGuestCoupon:      m.IsGuestCoupon,
		SharedByEmployeeID: m.SharedByEmployeeID,
	}
}

func toDTOs(rows []models.Coupon) []CouponDTO {
	out := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

// GuestPass is the outcome of a guest pass request.
type GuestPass struct {
	types.Result
	Coupon CouponDTO `json:"coupon"`
}

// PoolSummary counts a contractor's unassigned coupons of one type.
type PoolSummary struct {
	CouponType enums.CouponType `json:"couponType"`
	Available  int              `json:"available"`
}
