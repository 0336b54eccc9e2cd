package auth

import (
	"context"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Principal is the authenticated party of a request. Exactly one of Employee
// or Contractor is set, matching Kind; the zero value is an anonymous caller.
type Principal struct {
	Kind       enums.PrincipalKind
	AccessID   string
	Employee   *models.Employee
	Contractor *models.Contractor
}

// EmployeePrincipal wraps a logged-in employee.
func EmployeePrincipal(e *models.Employee, accessID string) Principal {
	return Principal{Kind: enums.PrincipalKindEmployee, AccessID: accessID, Employee: e}
}

// ContractorPrincipal wraps a logged-in contractor.
func ContractorPrincipal(c *models.Contractor, accessID string) Principal {
	return Principal{Kind: enums.PrincipalKindContractor, AccessID: accessID, Contractor: c}
}

// IsAuthenticated reports whether the principal is an employee or a contractor.
func (p Principal) IsAuthenticated() bool {
	switch p.Kind {
	case enums.PrincipalKindEmployee:
		return p.Employee != nil
	case enums.PrincipalKindContractor:
		return p.Contractor != nil
	default:
		return false
	}
}

// AccountID returns the registry id of whichever account is logged in.
func (p Principal) AccountID() int64 {
	switch p.Kind {
	case enums.PrincipalKindEmployee:
		if p.Employee != nil {
			return p.Employee.ID
		}
	case enums.PrincipalKindContractor:
		if p.Contractor != nil {
			return p.Contractor.ID
		}
	}
	return 0
}

// IsAdmin reports whether the principal is an employee with the admin role.
func (p Principal) IsAdmin() bool {
	return p.HasEmployeeRole(enums.EmployeeRoleAdmin)
}

// IsSuperAdmin reports whether the principal is the reserved super admin account.
func (p Principal) IsSuperAdmin(reservedEmployeeID string) bool {
	if p.Kind != enums.PrincipalKindEmployee || p.Employee == nil || reservedEmployeeID == "" {
		return false
	}
	return p.Employee.EmployeeID == reservedEmployeeID
}

// IsContractor reports whether a contractor is logged in.
func (p Principal) IsContractor() bool {
	return p.Kind == enums.PrincipalKindContractor && p.Contractor != nil
}

// HasEmployeeRole reports whether the principal is an employee holding any of roles.
func (p Principal) HasEmployeeRole(roles ...enums.EmployeeRole) bool {
	if p.Kind != enums.PrincipalKindEmployee || p.Employee == nil {
		return false
	}
	for _, role := range roles {
		if p.Employee.Role == role {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal stores the principal on the request context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal for the request, or the
// anonymous zero value.
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
