package models

import (
	"time"

	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Coupon is a single meal entitlement. It is owned by an employee, sits in a
// contractor pool, or is a guest pass tracked through SharedByEmployeeID.
type Coupon struct {
	CouponID           string             `gorm:"column:coupon_id;primaryKey;type:text"`
	Sequence           int64              `gorm:"column:sequence;not null;index"`
	EmployeeID         *int64             `gorm:"column:employee_id;index"`
	ContractorID       *int64             `gorm:"column:contractor_id;index"`
	DateIssued         time.Time          `gorm:"column:date_issued;not null"`
	Status             enums.CouponStatus `gorm:"column:status;type:text;not null"`
	RedeemDate         *time.Time         `gorm:"column:redeem_date"`
	RedemptionCode     string             `gorm:"column:redemption_code;type:text;not null;index"`
	CouponType         enums.CouponType   `gorm:"column:coupon_type;type:text;not null"`
	IsGuestCoupon      bool               `gorm:"column:is_guest_coupon;not null;default:false"`
	SharedByEmployeeID *int64             `gorm:"column:shared_by_employee_id;index"`
}

func (Coupon) TableName() string { return "coupons" }

// IsPooled reports whether the coupon still sits unassigned in a contractor pool.
func (c Coupon) IsPooled() bool {
	return c.ContractorID != nil && c.EmployeeID == nil && c.Status == enums.CouponStatusIssued
}
