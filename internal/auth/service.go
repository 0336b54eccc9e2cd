package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/auth/session"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/security"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

const (
	invalidCredentialsMessage = "Invalid Login ID or Password. Please try again."
	deactivatedMessage        = "Your account has been deactivated. Please contact an administrator."
	sessionRequiredMessage    = "session expired or revoked"
)

// Service authenticates accounts and resolves request principals.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, principal pkgAuth.Principal) error
	Me(ctx context.Context, principal pkgAuth.Principal) (*AccountView, error)
	ChangePassword(ctx context.Context, principal pkgAuth.Principal, req ChangePasswordRequest) (types.Result, error)
	ResolvePrincipal(ctx context.Context, token string) (pkgAuth.Principal, error)
}

type employeeStore interface {
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error)
}

type contractorStore interface {
	FindByID(ctx context.Context, id int64) (*models.Contractor, error)
	FindByContractorID(ctx context.Context, contractorID string) (*models.Contractor, error)
}

type passwordChanger interface {
	ChangePassword(ctx context.Context, id int64, current, next string) (types.Result, error)
}

type sessionManager interface {
	Create(ctx context.Context, account session.Account) (string, error)
	Lookup(ctx context.Context, accessID string) (session.Account, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Employees          employeeStore
	Contractors        contractorStore
	EmployeePasswords  passwordChanger
	ContractorPassword passwordChanger
	Sessions           sessionManager
	Hasher             security.PasswordHasher
	JWTConfig          config.JWTConfig
	SuperAdminID       string
	Clock              func() time.Time
}

type service struct {
	employees          employeeStore
	contractors        contractorStore
	employeePasswords  passwordChanger
	contractorPassword passwordChanger
	sessions           sessionManager
	hasher             security.PasswordHasher
	jwtCfg             config.JWTConfig
	superAdminID       string
	now                func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Employees == nil {
		return nil, fmt.Errorf("employee store is required")
	}
	if params.Contractors == nil {
		return nil, fmt.Errorf("contractor store is required")
	}
	if params.EmployeePasswords == nil || params.ContractorPassword == nil {
		return nil, fmt.Errorf("password changers are required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		employees:          params.Employees,
		contractors:        params.Contractors,
		employeePasswords:  params.EmployeePasswords,
		contractorPassword: params.ContractorPassword,
		sessions:           params.Sessions,
		hasher:             params.Hasher,
		jwtCfg:             params.JWTConfig,
		superAdminID:       params.SuperAdminID,
		now:                now,
	}, nil
}

// Login checks the employee registry first and falls back to contractors.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		return nil, invalidCredentials()
	}

	principal, err := s.authenticate(ctx, loginID, req.Password)
	if err != nil {
		return nil, err
	}

	account := session.Account{Kind: principal.Kind, ID: principal.AccountID()}
	accessID, err := s.sessions.Create(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Kind:      account.Kind,
		AccountID: account.ID,
		JTI:       accessID,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwtCfg.SessionTTL()),
		Account:     s.view(principal),
	}, nil
}

func (s *service) authenticate(ctx context.Context, loginID, password string) (pkgAuth.Principal, error) {
	employee, err := s.employees.FindByEmployeeID(ctx, loginID)
	switch {
	case err == nil:
		ok, err := s.hasher.Verify(password, employee.PasswordHash)
		if err != nil && !errors.Is(err, security.ErrInvalidHash) {
			return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if ok {
			if !employee.IsActive() {
				return pkgAuth.Principal{}, pkgerrors.Fail(pkgerrors.CodeForbidden, pkgerrors.ReasonAccountDeactivated, deactivatedMessage)
			}
			return pkgAuth.EmployeePrincipal(employee, ""), nil
		}
	case !db.IsNotFound(err):
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup employee")
	}

	contractor, err := s.contractors.FindByContractorID(ctx, loginID)
	switch {
	case err == nil:
		ok, err := s.hasher.Verify(password, contractor.PasswordHash)
		if err != nil && !errors.Is(err, security.ErrInvalidHash) {
			return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if ok {
			return pkgAuth.ContractorPrincipal(contractor, ""), nil
		}
	case !db.IsNotFound(err):
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup contractor")
	}

	return pkgAuth.Principal{}, invalidCredentials()
}

func (s *service) Logout(ctx context.Context, principal pkgAuth.Principal) error {
	if !principal.IsAuthenticated() || principal.AccessID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.sessions.Revoke(ctx, principal.AccessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(_ context.Context, principal pkgAuth.Principal) (*AccountView, error) {
	if !principal.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	view := s.view(principal)
	return &view, nil
}

func (s *service) ChangePassword(ctx context.Context, principal pkgAuth.Principal, req ChangePasswordRequest) (types.Result, error) {
	switch principal.Kind {
	case enums.PrincipalKindEmployee:
		if principal.Employee != nil {
			return s.employeePasswords.ChangePassword(ctx, principal.Employee.ID, req.CurrentPassword, req.NewPassword)
		}
	case enums.PrincipalKindContractor:
		if principal.Contractor != nil {
			return s.contractorPassword.ChangePassword(ctx, principal.Contractor.ID, req.CurrentPassword, req.NewPassword)
		}
	}
	return types.Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

// ResolvePrincipal turns a bearer token into a principal. The account is
// reloaded from the registry so role and status changes apply immediately.
func (s *service) ResolvePrincipal(ctx context.Context, token string) (pkgAuth.Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	account, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionRequiredMessage)
		}
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup session")
	}
	if account.Kind != claims.Kind || account.ID != claims.AccountID {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionRequiredMessage)
	}

	switch account.Kind {
	case enums.PrincipalKindEmployee:
		employee, err := s.employees.FindByID(ctx, account.ID)
		if err != nil {
			return pkgAuth.Principal{}, s.reloadFailure(err, "load employee")
		}
		if !employee.IsActive() {
			return pkgAuth.Principal{}, pkgerrors.Fail(pkgerrors.CodeForbidden, pkgerrors.ReasonAccountDeactivated, deactivatedMessage)
		}
		return pkgAuth.EmployeePrincipal(employee, claims.ID), nil
	case enums.PrincipalKindContractor:
		contractor, err := s.contractors.FindByID(ctx, account.ID)
		if err != nil {
			return pkgAuth.Principal{}, s.reloadFailure(err, "load contractor")
		}
		return pkgAuth.ContractorPrincipal(contractor, claims.ID), nil
	default:
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionRequiredMessage)
	}
}

func (s *service) reloadFailure(err error, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func (s *service) view(principal pkgAuth.Principal) AccountView {
	view := AccountView{Kind: principal.Kind}
	switch principal.Kind {
	case enums.PrincipalKindEmployee:
		dto := employees.FromModel(*principal.Employee)
		view.Employee = &dto
		view.IsSuperAdmin = principal.IsSuperAdmin(s.superAdminID)
	case enums.PrincipalKindContractor:
		dto := contractors.FromModel(*principal.Contractor)
		view.Contractor = &dto
	}
	return view
}

func invalidCredentials() error {
	return pkgerrors.Fail(pkgerrors.CodeUnauthorized, pkgerrors.ReasonInvalidCredentials, invalidCredentialsMessage)
}
