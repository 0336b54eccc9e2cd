package enums

import "fmt"

// CouponStatus tracks the one-way issued -> redeemed transition.
type CouponStatus string

const (
	CouponStatusIssued   CouponStatus = "issued"
	CouponStatusRedeemed CouponStatus = "redeemed"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusIssued,
	CouponStatusRedeemed,
}

// IsValid reports whether the value is a known CouponStatus.
func (c CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
