package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/auth/session"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "canteen", ExpirationMinutes: 30}

func TestLoginEmployee(t *testing.T) {
	fx := newFixture()
	fx.employees.add(models.Employee{ID: 1, EmployeeID: "admin01", Name: "Root", PasswordHash: "plain:superadmin", Role: enums.EmployeeRoleAdmin, Status: enums.EmployeeStatusActive})

	resp, err := fx.svc.Login(context.Background(), LoginRequest{LoginID: " admin01 ", Password: "superadmin"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Account.Kind != enums.PrincipalKindEmployee || resp.Account.Employee == nil {
		t.Fatalf("expected employee account, got %+v", resp.Account)
	}
	if !resp.Account.IsSuperAdmin {
		t.Fatal("expected reserved id to be flagged super admin")
	}
	if !resp.ExpiresAt.Equal(fx.now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Kind != enums.PrincipalKindEmployee || claims.AccountID != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, ok := fx.sessions.live[claims.ID]; !ok {
		t.Fatal("expected a live session keyed by the token id")
	}
}

func TestLoginFallsBackToContractors(t *testing.T) {
	fx := newFixture()
	fx.contractors.add(models.Contractor{ID: 4, ContractorID: "acme", BusinessName: "Acme", PasswordHash: "plain:pw"})

	resp, err := fx.svc.Login(context.Background(), LoginRequest{LoginID: "acme", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Account.Kind != enums.PrincipalKindContractor || resp.Account.Contractor.BusinessName != "Acme" {
		t.Fatalf("expected contractor account, got %+v", resp.Account)
	}
}

func TestLoginFailures(t *testing.T) {
	fx := newFixture()
	fx.employees.add(models.Employee{ID: 2, EmployeeID: "E2", Name: "Ana", PasswordHash: "plain:pw", Role: enums.EmployeeRoleEmployee, Status: enums.EmployeeStatusDeactivated})
	fx.employees.add(models.Employee{ID: 3, EmployeeID: "E3", Name: "Bo", PasswordHash: "plain:pw", Role: enums.EmployeeRoleEmployee, Status: enums.EmployeeStatusActive})

	cases := []struct {
		name    string
		req     LoginRequest
		code    pkgerrors.Code
		reason  pkgerrors.Reason
		message string
	}{
		{"deactivated", LoginRequest{LoginID: "E2", Password: "pw"}, pkgerrors.CodeForbidden, pkgerrors.ReasonAccountDeactivated, deactivatedMessage},
		{"deactivated wrong password", LoginRequest{LoginID: "E2", Password: "nope"}, pkgerrors.CodeUnauthorized, pkgerrors.ReasonInvalidCredentials, invalidCredentialsMessage},
		{"wrong password", LoginRequest{LoginID: "E3", Password: "nope"}, pkgerrors.CodeUnauthorized, pkgerrors.ReasonInvalidCredentials, invalidCredentialsMessage},
		{"unknown id", LoginRequest{LoginID: "ghost", Password: "pw"}, pkgerrors.CodeUnauthorized, pkgerrors.ReasonInvalidCredentials, invalidCredentialsMessage},
		{"blank", LoginRequest{}, pkgerrors.CodeUnauthorized, pkgerrors.ReasonInvalidCredentials, invalidCredentialsMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Login(context.Background(), tc.req)
			typed := pkgerrors.As(err)
			if typed == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if typed.Code() != tc.code || typed.Reason() != tc.reason || typed.Message() != tc.message {
				t.Fatalf("unexpected error code=%s reason=%s message=%q", typed.Code(), typed.Reason(), typed.Message())
			}
		})
	}
	if len(fx.sessions.live) != 0 {
		t.Fatalf("expected no sessions after failed logins, got %d", len(fx.sessions.live))
	}
}

func TestResolvePrincipalReloadsAccount(t *testing.T) {
	fx := newFixture()
	fx.employees.add(models.Employee{ID: 3, EmployeeID: "E3", Name: "Bo", PasswordHash: "plain:pw", Role: enums.EmployeeRoleEmployee, Status: enums.EmployeeStatusActive})

	resp, err := fx.svc.Login(context.Background(), LoginRequest{LoginID: "E3", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promote after login; the next request sees the new role.
	fx.employees.byID[3].Role = enums.EmployeeRoleCanteenManager
	principal, err := fx.svc.ResolvePrincipal(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !principal.HasEmployeeRole(enums.EmployeeRoleCanteenManager) {
		t.Fatalf("expected reloaded role, got %s", principal.Employee.Role)
	}
	if principal.AccessID == "" {
		t.Fatal("expected access id on principal")
	}

	fx.employees.byID[3].Status = enums.EmployeeStatusDeactivated
	_, err = fx.svc.ResolvePrincipal(context.Background(), resp.AccessToken)
	if pkgerrors.ReasonOf(err) != pkgerrors.ReasonAccountDeactivated {
		t.Fatalf("expected deactivated principal to be rejected, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	fx := newFixture()
	fx.contractors.add(models.Contractor{ID: 4, ContractorID: "acme", BusinessName: "Acme", PasswordHash: "plain:pw"})

	resp, err := fx.svc.Login(context.Background(), LoginRequest{LoginID: "acme", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	principal, err := fx.svc.ResolvePrincipal(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := fx.svc.Logout(context.Background(), principal); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = fx.svc.ResolvePrincipal(context.Background(), resp.AccessToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestResolvePrincipalRejectsGarbage(t *testing.T) {
	fx := newFixture()
	if _, err := fx.svc.ResolvePrincipal(context.Background(), "not-a-jwt"); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestChangePasswordDispatchesOnKind(t *testing.T) {
	fx := newFixture()
	employee := &models.Employee{ID: 3}
	contractor := &models.Contractor{ID: 4}

	if _, err := fx.svc.ChangePassword(context.Background(), pkgAuth.EmployeePrincipal(employee, "a"), ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y"}); err != nil {
		t.Fatalf("employee change: %v", err)
	}
	if _, err := fx.svc.ChangePassword(context.Background(), pkgAuth.ContractorPrincipal(contractor, "b"), ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y"}); err != nil {
		t.Fatalf("contractor change: %v", err)
	}
	if fx.employeePw.calls != 1 || fx.contractorPw.calls != 1 {
		t.Fatalf("unexpected dispatch counts employee=%d contractor=%d", fx.employeePw.calls, fx.contractorPw.calls)
	}
	if fx.employeePw.lastID != 3 || fx.contractorPw.lastID != 4 {
		t.Fatalf("unexpected ids %d %d", fx.employeePw.lastID, fx.contractorPw.lastID)
	}

	if _, err := fx.svc.ChangePassword(context.Background(), pkgAuth.Principal{}, ChangePasswordRequest{}); err == nil {
		t.Fatal("expected anonymous change to fail")
	}
}

type fixture struct {
	svc          Service
	employees    *stubEmployees
	contractors  *stubContractors
	sessions     *stubSessions
	employeePw   *stubPasswords
	contractorPw *stubPasswords
	now          time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		employees:    &stubEmployees{byID: map[int64]*models.Employee{}},
		contractors:  &stubContractors{byID: map[int64]*models.Contractor{}},
		sessions:     &stubSessions{live: map[string]session.Account{}},
		employeePw:   &stubPasswords{},
		contractorPw: &stubPasswords{},
		now:          time.Now().UTC().Truncate(time.Second),
	}
	svc, err := NewService(ServiceParams{
		Employees:          fx.employees,
		Contractors:        fx.contractors,
		EmployeePasswords:  fx.employeePw,
		ContractorPassword: fx.contractorPw,
		Sessions:           fx.sessions,
		Hasher:             plainHasher{},
		JWTConfig:          testJWT,
		SuperAdminID:       "admin01",
		Clock:              func() time.Time { return fx.now },
	})
	if err != nil {
		panic(err)
	}
	fx.svc = svc
	return fx
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return "plain:"+password == encoded, nil
}

type stubEmployees struct {
	byID map[int64]*models.Employee
}

func (s *stubEmployees) add(e models.Employee) {
	s.byID[e.ID] = &e
}

func (s *stubEmployees) FindByID(_ context.Context, id int64) (*models.Employee, error) {
	if e, ok := s.byID[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEmployees) FindByEmployeeID(_ context.Context, employeeID string) (*models.Employee, error) {
	for _, e := range s.byID {
		if e.EmployeeID == employeeID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubContractors struct {
	byID map[int64]*models.Contractor
}

func (s *stubContractors) add(c models.Contractor) {
	s.byID[c.ID] = &c
}

func (s *stubContractors) FindByID(_ context.Context, id int64) (*models.Contractor, error) {
	if c, ok := s.byID[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubContractors) FindByContractorID(_ context.Context, contractorID string) (*models.Contractor, error) {
	for _, c := range s.byID {
		if c.ContractorID == contractorID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	live map[string]session.Account
	seq  int
}

func (s *stubSessions) Create(_ context.Context, account session.Account) (string, error) {
	s.seq++
	id := fmt.Sprintf("access-%d", s.seq)
	s.live[id] = account
	return id, nil
}

func (s *stubSessions) Lookup(_ context.Context, accessID string) (session.Account, error) {
	if account, ok := s.live[accessID]; ok {
		return account, nil
	}
	return session.Account{}, session.ErrNoSession
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	if _, ok := s.live[accessID]; !ok {
		return errors.New("unknown session")
	}
	delete(s.live, accessID)
	return nil
}

type stubPasswords struct {
	calls  int
	lastID int64
}

func (s *stubPasswords) ChangePassword(_ context.Context, id int64, _, _ string) (types.Result, error) {
	s.calls++
	s.lastID = id
	return types.OK("Password changed successfully."), nil
}
