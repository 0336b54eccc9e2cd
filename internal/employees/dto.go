package employees

import (
	"strings"
	"time"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

// EmployeeDTO is the public view of an employee. The password hash never
// leaves the service.
type EmployeeDTO struct {
	ID         int64                `json:"id"`
	EmployeeID string               `json:"employeeId"`
	Name       string               `json:"name"`
	Email      *string              `json:"email,omitempty"`
	Role       enums.EmployeeRole   `json:"role"`
	Department *string              `json:"department,omitempty"`
	Contractor *string              `json:"contractor,omitempty"`
	Status     enums.EmployeeStatus `json:"status"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// FromModel maps a row onto its DTO.
func FromModel(m models.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		Name:       m.Name,
		Email:      m.Email,
		Role:       m.Role,
		Department: m.Department,
		Contractor: m.Contractor,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// CreateInput carries the admin form for a new employee.
type CreateInput struct {
	EmployeeID string
	Name       string
	Email      *string
	Password   string
	Role       enums.EmployeeRole
	Department *string
	Contractor *string
}

// UpdateInput replaces an employee's profile. A nil Password keeps the
// current one and a nil Status keeps the current status.
type UpdateInput struct {
	EmployeeID string
	Name       string
	Email      *string
	Password   *string
	Role       enums.EmployeeRole
	Department *string
	Contractor *string
	Status     *enums.EmployeeStatus
}

type profile struct {
	employeeID string
	name       string
	email      *string
	role       enums.EmployeeRole
	department *string
	contractor *string
}

// normalize applies the role rules: permanent employees need a department,
// contractual employees need a contractor and carry no email.
func (p profile) normalize() (profile, error) {
	p.employeeID = strings.TrimSpace(p.employeeID)
	p.name = strings.TrimSpace(p.name)
	p.email = trimmedOrNil(p.email)
	p.department = trimmedOrNil(p.department)
	p.contractor = trimmedOrNil(p.contractor)

	if p.employeeID == "" {
		return p, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	if p.name == "" {
		return p, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !p.role.IsValid() {
		return p, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if p.email != nil && !strings.Contains(*p.email, "@") {
		return p, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}

	switch p.role {
	case enums.EmployeeRoleEmployee:
		if p.department == nil {
			return p, pkgerrors.New(pkgerrors.CodeValidation, "department is required for employees")
		}
		p.contractor = nil
	case enums.EmployeeRoleContractual:
		if p.contractor == nil {
			return p, pkgerrors.New(pkgerrors.CodeValidation, "contractor is required for contractual employees")
		}
		p.email = nil
		p.department = nil
	default:
		p.contractor = nil
	}
	return p, nil
}

func (p profile) apply(m *models.Employee) {
	m.EmployeeID = p.employeeID
	m.Name = p.name
	m.Email = p.email
	m.Role = p.role
	m.Department = p.department
	m.Contractor = p.contractor
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
