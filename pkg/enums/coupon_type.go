package enums

import "fmt"

// CouponType is the meal a coupon is good for.
type CouponType string

const (
	CouponTypeBreakfast   CouponType = "Breakfast"
	CouponTypeLunchDinner CouponType = "Lunch/Dinner"
	CouponTypeSnacks      CouponType = "Snacks"
	CouponTypeBeverage    CouponType = "Beverage"
)

// CouponTypeDisplayOrder is the order dashboards list meal types in.
var CouponTypeDisplayOrder = []CouponType{
	CouponTypeLunchDinner,
	CouponTypeBreakfast,
	CouponTypeSnacks,
	CouponTypeBeverage,
}

var validCouponTypes = []CouponType{
	CouponTypeBreakfast,
	CouponTypeLunchDinner,
	CouponTypeSnacks,
	CouponTypeBeverage,
}

// String implements fmt.Stringer.
func (c CouponType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponType.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// MonthlyLimit is the size of a monthly batch for a permanent employee.
// Zero means no batch is defined for the type.
func (c CouponType) MonthlyLimit() int {
	switch c {
	case CouponTypeLunchDinner:
		return 24
	case CouponTypeBreakfast:
		return 26
	default:
		return 0
	}
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}
