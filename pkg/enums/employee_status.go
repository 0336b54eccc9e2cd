package enums

import "fmt"

type EmployeeStatus string

const (
	EmployeeStatusActive      EmployeeStatus = "active"
	EmployeeStatusDeactivated EmployeeStatus = "deactivated"
)

var validEmployeeStatuses = []EmployeeStatus{
	EmployeeStatusActive,
	EmployeeStatusDeactivated,
}

// IsValid reports whether the value is a known EmployeeStatus.
func (s EmployeeStatus) IsValid() bool {
	for _, candidate := range validEmployeeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Toggled flips active and deactivated.
func (s EmployeeStatus) Toggled() EmployeeStatus {
	if s == EmployeeStatusActive {
		return EmployeeStatusDeactivated
	}
	return EmployeeStatusActive
}

// ParseEmployeeStatus converts raw input into an EmployeeStatus.
func ParseEmployeeStatus(value string) (EmployeeStatus, error) {
	for _, candidate := range validEmployeeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee status %q", value)
}
