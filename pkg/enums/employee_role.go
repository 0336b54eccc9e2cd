package enums

import "fmt"

// EmployeeRole determines dashboards and coupon eligibility.
type EmployeeRole string

const (
	EmployeeRoleEmployee       EmployeeRole = "employee"
	EmployeeRoleContractual    EmployeeRole = "contractual employee"
	EmployeeRoleAdmin          EmployeeRole = "admin"
	EmployeeRoleCanteenManager EmployeeRole = "canteen manager"
)

var validEmployeeRoles = []EmployeeRole{
	EmployeeRoleEmployee,
	EmployeeRoleContractual,
	EmployeeRoleAdmin,
	EmployeeRoleCanteenManager,
}

// String implements fmt.Stringer.
func (r EmployeeRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known EmployeeRole.
func (r EmployeeRole) IsValid() bool {
	for _, candidate := range validEmployeeRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseEmployeeRole converts raw input into an EmployeeRole.
func ParseEmployeeRole(value string) (EmployeeRole, error) {
	for _, candidate := range validEmployeeRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee role %q", value)
}
