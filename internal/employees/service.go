package employees

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/security"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

const (
	superAdminName       = "Super Admin"
	superAdminEmail      = "superadmin@canteen.com"
	superAdminDepartment = "System"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the employee registry.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*EmployeeDTO, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*EmployeeDTO, error)
	Get(ctx context.Context, id int64) (*EmployeeDTO, error)
	List(ctx context.Context) ([]EmployeeDTO, error)
	ListByContractor(ctx context.Context, businessName string) ([]EmployeeDTO, error)
	ToggleStatus(ctx context.Context, id int64) (*EmployeeDTO, error)
	Delete(ctx context.Context, id int64) (types.Result, error)
	ChangePassword(ctx context.Context, id int64, current, next string) (types.Result, error)
	SeedSuperAdmin(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	tx         txRunner
	repo       *Repository
	hasher     security.PasswordHasher
	ledger     config.LedgerConfig
	ledgerLock sync.Locker
}

// ServiceParams groups the registry dependencies. LedgerLock is the coupon
// ledger's Locker; Delete holds it while the cascade removes coupons.
type ServiceParams struct {
	DB         *db.Client
	Repo       *Repository
	Hasher     security.PasswordHasher
	Ledger     config.LedgerConfig
	LedgerLock sync.Locker
}

// NewService wires the employee registry.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	lock := params.LedgerLock
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &service{
		tx:         params.DB,
		repo:       params.Repo,
		hasher:     params.Hasher,
		ledger:     params.Ledger,
		ledgerLock: lock,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*EmployeeDTO, error) {
	p, err := profile{
		employeeID: input.EmployeeID,
		name:       input.Name,
		email:      input.Email,
		role:       input.Role,
		department: input.Department,
		contractor: input.Contractor,
	}.normalize()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created models.Employee
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		maxID, err := repo.MaxID(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read max employee id")
		}
		created = models.Employee{
			ID:           maxID + 1,
			PasswordHash: hash,
			Status:       enums.EmployeeStatusActive,
		}
		p.apply(&created)
		if err := repo.Create(ctx, &created); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "employee id already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create employee")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*EmployeeDTO, error) {
	p, err := profile{
		employeeID: input.EmployeeID,
		name:       input.Name,
		email:      input.Email,
		role:       input.Role,
		department: input.Department,
		contractor: input.Contractor,
	}.normalize()
	if err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	var hash string
	if input.Password != nil && strings.TrimSpace(*input.Password) != "" {
		if hash, err = s.hasher.Hash(*input.Password); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
	}

	var updated *models.Employee
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if s.isSuperAdmin(existing) && p.employeeID != existing.EmployeeID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "the super admin login id cannot be changed")
		}
		p.apply(existing)
		if hash != "" {
			existing.PasswordHash = hash
		}
		if input.Status != nil {
			existing.Status = *input.Status
		}
		if err := repo.Save(ctx, existing); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "employee id already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update employee")
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*EmployeeDTO, error) {
	employee, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*employee)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]EmployeeDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	return toDTOs(rows), nil
}

func (s *service) ListByContractor(ctx context.Context, businessName string) ([]EmployeeDTO, error) {
	if strings.TrimSpace(businessName) == "" {
		return []EmployeeDTO{}, nil
	}
	rows, err := s.repo.ListByContractor(ctx, businessName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contractor employees")
	}
	return toDTOs(rows), nil
}

// ToggleStatus flips active and deactivated. Coupons are left untouched.
func (s *service) ToggleStatus(ctx context.Context, id int64) (*EmployeeDTO, error) {
	var toggled *models.Employee
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		employee, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if s.isSuperAdmin(employee) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "the super admin cannot be deactivated")
		}
		employee.Status = employee.Status.Toggled()
		if err := repo.UpdateStatus(ctx, employee.ID, employee.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update employee status")
		}
		toggled = employee
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*toggled)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) (types.Result, error) {
	s.ledgerLock.Lock()
	defer s.ledgerLock.Unlock()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		employee, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if s.isSuperAdmin(employee) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "the super admin cannot be deleted")
		}
		if err := repo.DeleteCascade(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete employee")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, err
	}
	return types.OK("Employee deleted successfully."), nil
}

func (s *service) ChangePassword(ctx context.Context, id int64, current, next string) (types.Result, error) {
	if strings.TrimSpace(next) == "" {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}
	employee, err := s.load(ctx, s.repo, id)
	if err != nil {
		return types.Result{}, err
	}
	ok, err := s.hasher.Verify(current, employee.PasswordHash)
	if err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return types.Result{}, pkgerrors.Fail(pkgerrors.CodeUnauthorized, pkgerrors.ReasonWrongPassword, "The current password you entered is incorrect.")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return types.OK("Password changed successfully."), nil
}

// SeedSuperAdmin creates the reserved admin account when the registry is
// empty. It reports whether a row was written.
func (s *service) SeedSuperAdmin(ctx context.Context) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count employees")
	}
	if count > 0 {
		return false, nil
	}
	hash, err := s.hasher.Hash(s.ledger.SuperAdminPassword)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash super admin password")
	}
	email := superAdminEmail
	department := superAdminDepartment
	admin := &models.Employee{
		ID:           1,
		EmployeeID:   s.ledger.SuperAdminID,
		Name:         superAdminName,
		Email:        &email,
		PasswordHash: hash,
		Role:         enums.EmployeeRoleAdmin,
		Department:   &department,
		Status:       enums.EmployeeStatusActive,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed super admin")
	}
	return true, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count employees")
	}
	return count, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id int64) (*models.Employee, error) {
	employee, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Employee not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	return employee, nil
}

func (s *service) isSuperAdmin(employee *models.Employee) bool {
	return s.ledger.SuperAdminID != "" && employee.EmployeeID == s.ledger.SuperAdminID
}

func toDTOs(rows []models.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
