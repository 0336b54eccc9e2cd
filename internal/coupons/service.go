package coupons

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/internal/notifications"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/mailer"
	"github.com/angelmondragon/canteen-coupons/pkg/metrics"
	"github.com/angelmondragon/canteen-coupons/pkg/qrcode"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

const (
	opIssueEmployee   = "issue_employee_batch"
	opIssueContractor = "issue_contractor_batch"
	opAssign          = "assign_from_pool"
	opRedeem          = "redeem"
	opRemoveCoupon    = "remove_coupon"
	opRemoveLastBatch = "remove_last_batch"
	opGuestPass       = "guest_pass"

	defaultGuestPassDailyMax = 5
	unknownSharer            = "Unknown"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the coupon ledger.
type Service interface {
	IssueEmployeeBatch(ctx context.Context, employeeID int64, couponType enums.CouponType) (types.Result, error)
	IssueContractorBatch(ctx context.Context, contractorID int64, couponType enums.CouponType, quantity int) (types.Result, error)
	AssignFromPool(ctx context.Context, contractorID, employeeID int64, couponType enums.CouponType, quantity int) (types.Result, error)
	RedeemByCode(ctx context.Context, code string) (types.Result, error)
	RemoveCoupon(ctx context.Context, couponID string) (types.Result, error)
	RemoveLastBatch(ctx context.Context, employeeID int64) (types.Result, error)
	GenerateGuestPass(ctx context.Context, employeeID int64, couponType enums.CouponType) (*GuestPass, error)
	List(ctx context.Context, filter ListFilter) ([]CouponDTO, error)
	Get(ctx context.Context, couponID string) (*CouponDTO, error)
	QRCode(ctx context.Context, couponID string, size int) ([]byte, error)
	ContractorPool(ctx context.Context, contractorID int64) ([]PoolSummary, error)
}

// ServiceParams groups the ledger dependencies. Notifier, Metrics, Logger,
// Codes, Clock and Lock fall back to working defaults when nil. Lock must be
// the same Locker the registries use for their delete cascades.
type ServiceParams struct {
	DB            *db.Client
	Repo          *Repository
	Employees     *employees.Repository
	Contractors   *contractors.Repository
	Notifications notifications.Repository
	Notifier      mailer.CouponNotifier
	Metrics       *metrics.LedgerMetrics
	Logger        *logger.Logger
	Ledger        config.LedgerConfig
	Codes         CodeGenerator
	Clock         func() time.Time
	Lock          sync.Locker
}

type service struct {
	// mu serializes ledger mutations so code uniqueness and batch checks see
	// a stable view of the issued set.
	mu sync.Locker

	tx            txRunner
	repo          *Repository
	employees     *employees.Repository
	contractors   *contractors.Repository
	notifications notifications.Repository
	notifier      mailer.CouponNotifier
	metrics       *metrics.LedgerMetrics
	logg          *logger.Logger
	codes         CodeGenerator
	now           func() time.Time
	loc           *time.Location
	guestMax      int
}

// NewService wires the coupon ledger.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if params.Employees == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if params.Contractors == nil {
		return nil, fmt.Errorf("contractor repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	loc, err := params.Ledger.Location()
	if err != nil {
		return nil, err
	}

	svc := &service{
		mu:            params.Lock,
		tx:            params.DB,
		repo:          params.Repo,
		employees:     params.Employees,
		contractors:   params.Contractors,
		notifications: params.Notifications,
		notifier:      params.Notifier,
		metrics:       params.Metrics,
		logg:          params.Logger,
		codes:         params.Codes,
		now:           params.Clock,
		loc:           loc,
		guestMax:      params.Ledger.GuestPassDailyMax,
	}
	if svc.mu == nil {
		svc.mu = &sync.Mutex{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.notifier == nil {
		svc.notifier, _ = mailer.NewCouponNotifier(config.SendgridConfig{}, svc.logg)
	}
	if svc.codes == nil {
		svc.codes = RandomCodes()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.guestMax <= 0 {
		svc.guestMax = defaultGuestPassDailyMax
	}
	return svc, nil
}

func (s *service) IssueEmployeeBatch(ctx context.Context, employeeID int64, couponType enums.CouponType) (types.Result, error) {
	if !couponType.IsValid() {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var (
		employee *models.Employee
		count    int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		employee, err = s.findEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if employee.Role != enums.EmployeeRoleEmployee {
			return pkgerrors.Fail(pkgerrors.CodeValidation, pkgerrors.ReasonRoleMismatch,
				"This function is only for permanent employees. Use the Contractors tab for contractual staff.")
		}
		count = couponType.MonthlyLimit()
		if count == 0 {
			return pkgerrors.Fail(pkgerrors.CodeValidation, pkgerrors.ReasonNoLimitDefined,
				fmt.Sprintf("No monthly limit defined for %s coupons for this employee role.", couponType))
		}

		repo := s.repo.WithTx(tx)
		owned, err := repo.List(ctx, ListFilter{EmployeeID: &employee.ID, CouponType: couponType, Status: enums.CouponStatusIssued})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee coupons")
		}
		for _, c := range owned {
			if s.sameMonth(c.DateIssued, now) {
				return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonPendingRedemption,
					fmt.Sprintf("Employee must redeem all existing %s coupons for this month before new ones can be generated.", couponType))
			}
		}

		batch, err := s.newBatch(ctx, repo, count, couponType, now, func(c *models.Coupon) {
			c.EmployeeID = &employee.ID
		})
		if err != nil {
			return err
		}
		if err := repo.InsertBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert coupons")
		}
		return s.notify(ctx, tx, employee.ID, fmt.Sprintf("You have received %d new %s coupon(s).", count, couponType), now)
	})
	if err != nil {
		return types.Result{}, s.reject(opIssueEmployee, err)
	}

	s.metrics.AddIssued(string(couponType), "employee_batch", count)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"employee_id": employee.ID,
		"coupon_type": string(couponType),
		"count":       count,
	}), "coupons.employee_batch.issued")

	if err := s.notifier.SendCouponNotification(ctx, *employee, count, couponType); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "employee_id", employee.ID), "coupons.employee_batch.mail_failed")
	}

	result := types.OK(fmt.Sprintf("%d %s coupons generated successfully for %s.", count, couponType, employee.Name))
	result.Count = count
	return result, nil
}

func (s *service) IssueContractorBatch(ctx context.Context, contractorID int64, couponType enums.CouponType, quantity int) (types.Result, error) {
	if !couponType.IsValid() {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	if quantity < 1 {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var contractor *models.Contractor
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		contractor, err = s.contractors.WithTx(tx).FindByID(ctx, contractorID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Contractor not found.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contractor")
		}

		repo := s.repo.WithTx(tx)
		batch, err := s.newBatch(ctx, repo, quantity, couponType, now, func(c *models.Coupon) {
			c.ContractorID = &contractor.ID
		})
		if err != nil {
			return err
		}
		if err := repo.InsertBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert coupons")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, s.reject(opIssueContractor, err)
	}

	s.metrics.AddIssued(string(couponType), "contractor_batch", quantity)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"contractor_id": contractor.ID,
		"coupon_type":   string(couponType),
		"count":         quantity,
	}), "coupons.contractor_batch.issued")

	result := types.OK(fmt.Sprintf("%d %s coupons generated for %s.", quantity, couponType, contractor.BusinessName))
	result.Count = quantity
	return result, nil
}

// AssignFromPool moves the oldest pooled coupons of a type to an employee.
// Deactivated employees may still receive coupons; they just cannot redeem.
func (s *service) AssignFromPool(ctx context.Context, contractorID, employeeID int64, couponType enums.CouponType, quantity int) (types.Result, error) {
	if !couponType.IsValid() {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	if quantity < 1 {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var employee *models.Employee
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pool, err := repo.Pool(ctx, contractorID, couponType)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contractor pool")
		}
		if len(pool) < quantity {
			return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonInsufficientPool,
				fmt.Sprintf("Not enough available %s coupons. You have %d, but tried to assign %d.", couponType, len(pool), quantity)).
				WithDetails(map[string]int{"available": len(pool), "requested": quantity})
		}

		employee, err = s.findEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, quantity)
		for _, c := range pool[:quantity] {
			ids = append(ids, c.CouponID)
		}
		assigned, err := repo.AssignEmployee(ctx, ids, employee.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign coupons")
		}
		if assigned != int64(quantity) {
			return pkgerrors.New(pkgerrors.CodeInternal, "pool changed during assignment")
		}
		return s.notify(ctx, tx, employee.ID, fmt.Sprintf("You have received %d new %s coupon(s) from your contractor.", quantity, couponType), now)
	})
	if err != nil {
		return types.Result{}, s.reject(opAssign, err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"contractor_id": contractorID,
		"employee_id":   employee.ID,
		"coupon_type":   string(couponType),
		"count":         quantity,
	}), "coupons.pool.assigned")

	result := types.OK(fmt.Sprintf("%d %s coupons assigned successfully to %s.", quantity, couponType, employee.Name))
	result.Count = quantity
	return result, nil
}

func (s *service) RedeemByCode(ctx context.Context, code string) (types.Result, error) {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var (
		message string
		coupon  *models.Coupon
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		coupon, err = repo.FindByCode(ctx, code, enums.CouponStatusIssued)
		if err != nil {
			if !db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up coupon")
			}
			if _, redeemedErr := repo.FindByCode(ctx, code, enums.CouponStatusRedeemed); redeemedErr == nil {
				return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonAlreadyRedeemed, "This coupon has already been redeemed.")
			} else if !db.IsNotFound(redeemedErr) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, redeemedErr, "look up coupon")
			}
			return pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonInvalidCode, "Invalid coupon code.")
		}

		people := s.employees.WithTx(tx)
		switch {
		case coupon.IsGuestCoupon:
			sharer := unknownSharer
			if coupon.SharedByEmployeeID != nil {
				if e, err := people.FindByID(ctx, *coupon.SharedByEmployeeID); err == nil {
					sharer = e.Name
				} else if !db.IsNotFound(err) {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sharing employee")
				}
			}
			message = fmt.Sprintf("Guest coupon redeemed successfully (shared by %s).", sharer)
		case coupon.EmployeeID == nil:
			return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonUnassigned, "This coupon has not been assigned to an employee yet.")
		default:
			name := unknownSharer
			owner, err := people.FindByID(ctx, *coupon.EmployeeID)
			switch {
			case err == nil:
				if !owner.IsActive() {
					return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonEmployeeDeactivated, "Cannot redeem coupon. Employee account is deactivated.")
				}
				name = owner.Name
			case !db.IsNotFound(err):
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon owner")
			}
			message = fmt.Sprintf("Coupon redeemed successfully for %s.", name)
		}

		coupon.Status = enums.CouponStatusRedeemed
		coupon.RedeemDate = &now
		ok, err := repo.MarkRedeemed(ctx, coupon)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
		}
		if !ok {
			return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonAlreadyRedeemed, "This coupon has already been redeemed.")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, s.reject(opRedeem, err)
	}

	s.metrics.IncRedeemed(string(coupon.CouponType), coupon.IsGuestCoupon)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"coupon_id":   coupon.CouponID,
		"coupon_type": string(coupon.CouponType),
		"guest":       coupon.IsGuestCoupon,
	}), "coupons.redeemed")

	return types.OK(message), nil
}

func (s *service) RemoveCoupon(ctx context.Context, couponID string) (types.Result, error) {
	couponID = strings.TrimSpace(couponID)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		coupon, err := repo.FindByID(ctx, couponID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Coupon not found.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}
		if coupon.Status == enums.CouponStatusRedeemed {
			return pkgerrors.Fail(pkgerrors.CodeStateConflict, pkgerrors.ReasonAlreadyRedeemed, "Cannot remove a redeemed coupon.")
		}
		if _, err := repo.DeleteIssued(ctx, []string{coupon.CouponID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, s.reject(opRemoveCoupon, err)
	}

	s.metrics.AddRemoved(opRemoveCoupon, 1)
	s.logg.Info(s.logg.WithField(ctx, "coupon_id", couponID), "coupons.removed")

	result := types.OK(fmt.Sprintf("Coupon %s removed successfully.", couponID))
	result.Count = 1
	return result, nil
}

// RemoveLastBatch deletes the employee's unredeemed coupons that share the
// most recent issue instant.
func (s *service) RemoveLastBatch(ctx context.Context, employeeID int64) (types.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pending, err := repo.List(ctx, ListFilter{EmployeeID: &employeeID, Status: enums.CouponStatusIssued})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee coupons")
		}
		if len(pending) == 0 {
			return pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNoneFound, "No unredeemed coupons found for this employee.")
		}

		latest := pending[0].DateIssued
		for _, c := range pending[1:] {
			if c.DateIssued.After(latest) {
				latest = c.DateIssued
			}
		}
		ids := make([]string, 0, len(pending))
		for _, c := range pending {
			if c.DateIssued.Equal(latest) {
				ids = append(ids, c.CouponID)
			}
		}

		removed, err = repo.DeleteIssued(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon batch")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, s.reject(opRemoveLastBatch, err)
	}

	s.metrics.AddRemoved(opRemoveLastBatch, int(removed))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"employee_id": employeeID,
		"count":       removed,
	}), "coupons.last_batch.removed")

	result := types.OK(fmt.Sprintf("Successfully removed the last batch of %d coupon(s).", removed))
	result.Count = int(removed)
	return result, nil
}

func (s *service) GenerateGuestPass(ctx context.Context, employeeID int64, couponType enums.CouponType) (*GuestPass, error) {
	if !couponType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var pass models.Coupon
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		employee, err := s.findEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		shared, err := repo.List(ctx, ListFilter{SharedBy: &employee.ID, CouponType: couponType, GuestOnly: true})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest passes")
		}
		today := 0
		for _, c := range shared {
			if s.sameDay(c.DateIssued, now) {
				today++
			}
		}
		if today >= s.guestMax {
			return pkgerrors.Fail(pkgerrors.CodeRateLimit, pkgerrors.ReasonDailyLimitReached,
				fmt.Sprintf("You have reached your daily limit of %d %s guest passes.", s.guestMax, couponType))
		}

		batch, err := s.newBatch(ctx, repo, 1, couponType, now, func(c *models.Coupon) {
			c.IsGuestCoupon = true
			c.SharedByEmployeeID = &employee.ID
		})
		if err != nil {
			return err
		}
		if err := repo.InsertBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert guest pass")
		}
		pass = batch[0]
		return nil
	})
	if err != nil {
		return nil, s.reject(opGuestPass, err)
	}

	s.metrics.AddIssued(string(couponType), "guest_pass", 1)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"employee_id": employeeID,
		"coupon_id":   pass.CouponID,
		"coupon_type": string(couponType),
	}), "coupons.guest_pass.issued")

	return &GuestPass{
		Result: types.OK("Guest pass generated successfully."),
		Coupon: FromModel(pass),
	}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]CouponDTO, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status")
	}
	if filter.CouponType != "" && !filter.CouponType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, couponID string) (*CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, strings.TrimSpace(couponID))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Coupon not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	dto := FromModel(*coupon)
	return &dto, nil
}

// QRCode renders the coupon's redemption code as a PNG.
func (s *service) QRCode(ctx context.Context, couponID string, size int) ([]byte, error) {
	coupon, err := s.Get(ctx, couponID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.PNG(coupon.RedemptionCode, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr code")
	}
	return png, nil
}

// ContractorPool counts unassigned issued coupons per type, in display order.
func (s *service) ContractorPool(ctx context.Context, contractorID int64) ([]PoolSummary, error) {
	rows, err := s.repo.List(ctx, ListFilter{ContractorID: &contractorID, Status: enums.CouponStatusIssued})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contractor coupons")
	}
	counts := make(map[enums.CouponType]int, len(enums.CouponTypeDisplayOrder))
	for _, c := range rows {
		if c.IsPooled() {
			counts[c.CouponType]++
		}
	}
	out := make([]PoolSummary, 0, len(enums.CouponTypeDisplayOrder))
	for _, t := range enums.CouponTypeDisplayOrder {
		out = append(out, PoolSummary{CouponType: t, Available: counts[t]})
	}
	return out, nil
}

func (s *service) findEmployee(ctx context.Context, tx *gorm.DB, id int64) (*models.Employee, error) {
	employee, err := s.employees.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Employee not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	return employee, nil
}

// newBatch builds n issued coupons sharing one issue instant, with codes
// unique against every live code and each other.
func (s *service) newBatch(ctx context.Context, repo *Repository, n int, couponType enums.CouponType, issuedAt time.Time, own func(*models.Coupon)) ([]models.Coupon, error) {
	live, err := repo.LiveCodes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load live codes")
	}
	codes, err := drawCodes(s.codes, live, n)
	if err != nil {
		return nil, err
	}
	seq, err := repo.NextSequence(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read coupon sequence")
	}

	batch := make([]models.Coupon, 0, n)
	for i, code := range codes {
		c := models.Coupon{
			CouponID:       newCouponID(),
			Sequence:       seq + int64(i),
			DateIssued:     issuedAt,
			Status:         enums.CouponStatusIssued,
			RedemptionCode: code,
			CouponType:     couponType,
		}
		own(&c)
		batch = append(batch, c)
	}
	return batch, nil
}

func (s *service) notify(ctx context.Context, tx *gorm.DB, employeeID int64, message string, now time.Time) error {
	row := notifications.Build(employeeID, enums.NotificationTypeNewCoupon, message, now)
	if err := s.notifications.WithTx(tx).Create(ctx, &row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (s *service) reject(op string, err error) error {
	if reason := pkgerrors.ReasonOf(err); reason != pkgerrors.ReasonNone {
		s.metrics.IncFailure(op, string(reason))
	}
	return err
}

func (s *service) sameMonth(issued, now time.Time) bool {
	a, b := issued.In(s.loc), now.In(s.loc)
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func (s *service) sameDay(issued, now time.Time) bool {
	a, b := issued.In(s.loc), now.In(s.loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
