package auth

import (
	"time"

	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// LoginRequest carries a login id (employee id or contractor id) and password.
type LoginRequest struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is sent by a logged-in account to rotate its password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=4"`
}

// AccountView describes the logged-in account. Exactly one of Employee or
// Contractor is set, matching Kind.
type AccountView struct {
	Kind         enums.PrincipalKind        `json:"kind"`
	IsSuperAdmin bool                       `json:"isSuperAdmin"`
	Employee     *employees.EmployeeDTO     `json:"employee,omitempty"`
	Contractor   *contractors.ContractorDTO `json:"contractor,omitempty"`
}

// LoginResponse holds the access token and the account it was issued to.
type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	Account     AccountView `json:"account"`
}
