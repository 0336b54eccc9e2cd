package coupons

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/internal/notifications"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db/dbtest"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/metrics"
)

type sequentialCodes struct{ n int }

func (g *sequentialCodes) Next() string {
	code := minRedemptionCode + g.n%codeSpace
	g.n++
	return strconv.Itoa(code)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int
}

func (r *recordingNotifier) SendCouponNotification(_ context.Context, _ models.Employee, count int, _ enums.CouponType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, count)
	return nil
}

type ledgerFixture struct {
	svc           Service
	employees     *employees.Repository
	contractors   *contractors.Repository
	notifications notifications.Repository
	notifier      *recordingNotifier
	now           time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	client := dbtest.Open(t)
	f := &ledgerFixture{
		employees:     employees.NewRepository(client.DB()),
		contractors:   contractors.NewRepository(client.DB()),
		notifications: notifications.NewRepository(client.DB()),
		notifier:      &recordingNotifier{},
		now:           time.Date(2026, time.March, 10, 4, 30, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		DB:            client,
		Repo:          NewRepository(client.DB()),
		Employees:     f.employees,
		Contractors:   f.contractors,
		Notifications: f.notifications,
		Notifier:      f.notifier,
		Metrics:       metrics.NewLedgerMetrics(prometheus.NewRegistry()),
		Ledger:        config.LedgerConfig{Timezone: "Asia/Kolkata", GuestPassDailyMax: 5},
		Codes:         &sequentialCodes{},
		Clock:         func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *ledgerFixture) addEmployee(t *testing.T, id int64, name string, role enums.EmployeeRole) models.Employee {
	t.Helper()
	employee := models.Employee{
		ID:           id,
		EmployeeID:   "E" + strconv.FormatInt(id, 10),
		Name:         name,
		PasswordHash: "x",
		Role:         role,
		Status:       enums.EmployeeStatusActive,
	}
	require.NoError(t, f.employees.Create(context.Background(), &employee))
	return employee
}

func (f *ledgerFixture) addContractor(t *testing.T, id int64, name string) models.Contractor {
	t.Helper()
	contractor := models.Contractor{
		ID:           id,
		ContractorID: "C" + strconv.FormatInt(id, 10),
		BusinessName: name,
		PasswordHash: "x",
	}
	require.NoError(t, f.contractors.Create(context.Background(), &contractor))
	return contractor
}

func reasonOf(t *testing.T, err error) pkgerrors.Reason {
	t.Helper()
	require.Error(t, err)
	return pkgerrors.ReasonOf(err)
}

func TestIssueEmployeeBatchCreatesMonthlyAllotment(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	res, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 26, res.Count)
	assert.Equal(t, "26 Breakfast coupons generated successfully for Ana.", res.Message)

	list, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID})
	require.NoError(t, err)
	require.Len(t, list, 26)
	codes := map[string]struct{}{}
	for _, c := range list {
		assert.Equal(t, enums.CouponStatusIssued, c.Status)
		assert.True(t, c.DateIssued.Equal(list[0].DateIssued))
		codes[c.RedemptionCode] = struct{}{}
	}
	assert.Len(t, codes, 26)

	unread, err := f.notifications.CountUnread(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
	assert.Equal(t, []int{26}, f.notifier.calls)
}

func TestIssueEmployeeBatchBlocksWhileMonthPending(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeLunchDinner)
	require.NoError(t, err)

	_, err = f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeLunchDinner)
	assert.Equal(t, pkgerrors.ReasonPendingRedemption, reasonOf(t, err))
	assert.Equal(t, "Employee must redeem all existing Lunch/Dinner coupons for this month before new ones can be generated.", pkgerrors.As(err).Message())

	// A different type is not blocked.
	_, err = f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)

	// Unredeemed coupons from last month do not block the new month.
	f.now = time.Date(2026, time.April, 2, 6, 0, 0, 0, time.UTC)
	res, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeLunchDinner)
	require.NoError(t, err)
	assert.Equal(t, 24, res.Count)
}

func TestIssueEmployeeBatchMonthFollowsLedgerZone(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	f.now = time.Date(2026, time.March, 31, 17, 0, 0, 0, time.UTC)
	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)

	// 31 Mar 20:00 UTC is already 1 Apr in Kolkata.
	f.now = time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC)
	_, err = f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
}

func TestIssueEmployeeBatchRejections(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)
	cal := f.addEmployee(t, 3, "Cal", enums.EmployeeRoleContractual)

	cases := []struct {
		name       string
		employeeID int64
		couponType enums.CouponType
		reason     pkgerrors.Reason
		message    string
	}{
		{"missing employee", 99, enums.CouponTypeBreakfast, pkgerrors.ReasonNotFound, "Employee not found."},
		{"contractual staff", cal.ID, enums.CouponTypeBreakfast, pkgerrors.ReasonRoleMismatch,
			"This function is only for permanent employees. Use the Contractors tab for contractual staff."},
		{"no monthly limit", ana.ID, enums.CouponTypeSnacks, pkgerrors.ReasonNoLimitDefined,
			"No monthly limit defined for Snacks coupons for this employee role."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.IssueEmployeeBatch(ctx, tc.employeeID, tc.couponType)
			assert.Equal(t, tc.reason, reasonOf(t, err))
			assert.Equal(t, tc.message, pkgerrors.As(err).Message())
		})
	}

	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponType("Dessert"))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, f.notifier.calls)
}

func TestContractorPoolAssignment(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	acme := f.addContractor(t, 1, "Acme Catering")
	cal := f.addEmployee(t, 3, "Cal", enums.EmployeeRoleContractual)

	res, err := f.svc.IssueContractorBatch(ctx, acme.ID, enums.CouponTypeSnacks, 2)
	require.NoError(t, err)
	assert.Equal(t, "2 Snacks coupons generated for Acme Catering.", res.Message)

	_, err = f.svc.AssignFromPool(ctx, acme.ID, cal.ID, enums.CouponTypeSnacks, 3)
	assert.Equal(t, pkgerrors.ReasonInsufficientPool, reasonOf(t, err))
	assert.Equal(t, "Not enough available Snacks coupons. You have 2, but tried to assign 3.", pkgerrors.As(err).Message())

	_, err = f.svc.AssignFromPool(ctx, acme.ID, 99, enums.CouponTypeSnacks, 1)
	assert.Equal(t, pkgerrors.ReasonNotFound, reasonOf(t, err))

	res, err = f.svc.AssignFromPool(ctx, acme.ID, cal.ID, enums.CouponTypeSnacks, 2)
	require.NoError(t, err)
	assert.Equal(t, "2 Snacks coupons assigned successfully to Cal.", res.Message)

	pool, err := f.svc.ContractorPool(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, pool, 4)
	for _, p := range pool {
		assert.Zero(t, p.Available, p.CouponType)
	}

	owned, err := f.svc.List(ctx, ListFilter{EmployeeID: &cal.ID})
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, acme.ID, *owned[0].ContractorID)

	unread, err := f.notifications.CountUnread(ctx, cal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestIssueContractorBatchRejections(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addContractor(t, 1, "Acme Catering")

	_, err := f.svc.IssueContractorBatch(ctx, 42, enums.CouponTypeBeverage, 3)
	assert.Equal(t, pkgerrors.ReasonNotFound, reasonOf(t, err))
	assert.Equal(t, "Contractor not found.", pkgerrors.As(err).Message())

	_, err = f.svc.IssueContractorBatch(ctx, 1, enums.CouponTypeBeverage, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRedeemByCode(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)
	acme := f.addContractor(t, 1, "Acme Catering")

	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	owned, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID})
	require.NoError(t, err)
	code := owned[0].RedemptionCode

	res, err := f.svc.RedeemByCode(ctx, " "+code+" ")
	require.NoError(t, err)
	assert.Equal(t, "Coupon redeemed successfully for Ana.", res.Message)

	redeemed, err := f.svc.Get(ctx, owned[0].CouponID)
	require.NoError(t, err)
	assert.Equal(t, enums.CouponStatusRedeemed, redeemed.Status)
	require.NotNil(t, redeemed.RedeemDate)
	assert.True(t, redeemed.RedeemDate.Equal(f.now))

	_, err = f.svc.RedeemByCode(ctx, code)
	assert.Equal(t, pkgerrors.ReasonAlreadyRedeemed, reasonOf(t, err))
	assert.Equal(t, "This coupon has already been redeemed.", pkgerrors.As(err).Message())

	_, err = f.svc.RedeemByCode(ctx, "0000")
	assert.Equal(t, pkgerrors.ReasonInvalidCode, reasonOf(t, err))

	_, err = f.svc.IssueContractorBatch(ctx, acme.ID, enums.CouponTypeBeverage, 1)
	require.NoError(t, err)
	pooled, err := f.svc.List(ctx, ListFilter{ContractorID: &acme.ID})
	require.NoError(t, err)
	_, err = f.svc.RedeemByCode(ctx, pooled[0].RedemptionCode)
	assert.Equal(t, pkgerrors.ReasonUnassigned, reasonOf(t, err))
}

func TestRedeemRejectsDeactivatedOwner(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	require.NoError(t, f.employees.UpdateStatus(ctx, ana.ID, enums.EmployeeStatusDeactivated))

	owned, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID})
	require.NoError(t, err)
	_, err = f.svc.RedeemByCode(ctx, owned[0].RedemptionCode)
	assert.Equal(t, pkgerrors.ReasonEmployeeDeactivated, reasonOf(t, err))

	still, err := f.svc.Get(ctx, owned[0].CouponID)
	require.NoError(t, err)
	assert.Equal(t, enums.CouponStatusIssued, still.Status)
}

func TestRedeemedCodeCanBeReissued(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	pass, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeSnacks)
	require.NoError(t, err)
	_, err = f.svc.RedeemByCode(ctx, pass.Coupon.RedemptionCode)
	require.NoError(t, err)

	// Cycle the generator back to the redeemed code.
	f.svc.(*service).codes = &scriptedCodes{codes: []string{pass.Coupon.RedemptionCode}}
	again, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeSnacks)
	require.NoError(t, err)
	assert.Equal(t, pass.Coupon.RedemptionCode, again.Coupon.RedemptionCode)

	res, err := f.svc.RedeemByCode(ctx, again.Coupon.RedemptionCode)
	require.NoError(t, err)
	assert.Equal(t, "Guest coupon redeemed successfully (shared by Ana).", res.Message)
}

func TestGuestCouponRedeemsAfterSharerDeleted(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	pass, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeLunchDinner)
	require.NoError(t, err)
	require.NoError(t, f.employees.DeleteCascade(ctx, ana.ID))

	// Guest coupons carry no owner, so the cascade leaves them redeemable.
	res, err := f.svc.RedeemByCode(ctx, pass.Coupon.RedemptionCode)
	require.NoError(t, err)
	assert.Equal(t, "Guest coupon redeemed successfully (shared by Unknown).", res.Message)

	redeemed, err := f.svc.Get(ctx, pass.Coupon.CouponID)
	require.NoError(t, err)
	assert.Equal(t, enums.CouponStatusRedeemed, redeemed.Status)
}

func TestLedgerHonorsSharedLock(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	lock := &sync.Mutex{}
	f.svc.(*service).mu = lock
	lock.Lock()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeSnacks)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("guest pass generated while the ledger lock was held")
	case <-time.After(50 * time.Millisecond):
	}
	lock.Unlock()
	require.NoError(t, <-done)
}

func TestRemoveCoupon(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	owned, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID})
	require.NoError(t, err)

	_, err = f.svc.RedeemByCode(ctx, owned[0].RedemptionCode)
	require.NoError(t, err)
	_, err = f.svc.RemoveCoupon(ctx, owned[0].CouponID)
	assert.Equal(t, pkgerrors.ReasonAlreadyRedeemed, reasonOf(t, err))
	assert.Equal(t, "Cannot remove a redeemed coupon.", pkgerrors.As(err).Message())

	res, err := f.svc.RemoveCoupon(ctx, owned[1].CouponID)
	require.NoError(t, err)
	assert.Equal(t, "Coupon "+owned[1].CouponID+" removed successfully.", res.Message)

	_, err = f.svc.RemoveCoupon(ctx, owned[1].CouponID)
	assert.Equal(t, pkgerrors.ReasonNotFound, reasonOf(t, err))
	assert.Equal(t, "Coupon not found.", pkgerrors.As(err).Message())
}

func TestRemoveLastBatch(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	_, err := f.svc.RemoveLastBatch(ctx, ana.ID)
	assert.Equal(t, pkgerrors.ReasonNoneFound, reasonOf(t, err))

	_, err = f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	f.now = f.now.Add(24 * time.Hour)
	_, err = f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeLunchDinner)
	require.NoError(t, err)

	// One redeemed coupon of the latest batch survives the removal.
	lunch, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID, CouponType: enums.CouponTypeLunchDinner})
	require.NoError(t, err)
	_, err = f.svc.RedeemByCode(ctx, lunch[0].RedemptionCode)
	require.NoError(t, err)

	res, err := f.svc.RemoveLastBatch(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 23, res.Count)
	assert.Equal(t, "Successfully removed the last batch of 23 coupon(s).", res.Message)

	left, err := f.svc.List(ctx, ListFilter{EmployeeID: &ana.ID})
	require.NoError(t, err)
	assert.Len(t, left, 27)

	res, err = f.svc.RemoveLastBatch(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 26, res.Count)
}

func TestGuestPassDailyLimit(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	for i := range 5 {
		pass, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeBeverage)
		require.NoError(t, err, "pass %d", i)
		assert.Equal(t, "Guest pass generated successfully.", pass.Message)
		assert.True(t, pass.Coupon.IsGuestCoupon)
		assert.Nil(t, pass.Coupon.EmployeeID)
		assert.Equal(t, ana.ID, *pass.Coupon.SharedByEmployeeID)
	}

	_, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeBeverage)
	assert.Equal(t, pkgerrors.ReasonDailyLimitReached, reasonOf(t, err))
	assert.Equal(t, "You have reached your daily limit of 5 Beverage guest passes.", pkgerrors.As(err).Message())

	// The limit is per type.
	_, err = f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeSnacks)
	require.NoError(t, err)

	f.now = f.now.Add(24 * time.Hour)
	_, err = f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeBeverage)
	require.NoError(t, err)

	_, err = f.svc.GenerateGuestPass(ctx, 99, enums.CouponTypeBeverage)
	assert.Equal(t, pkgerrors.ReasonNotFound, reasonOf(t, err))
}

func TestLiveCodesStayDistinctAcrossBatches(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)
	acme := f.addContractor(t, 1, "Acme Catering")

	// A fresh generator replays codes that are already live.
	f.svc.(*service).codes = &sequentialCodes{}
	_, err := f.svc.IssueEmployeeBatch(ctx, ana.ID, enums.CouponTypeBreakfast)
	require.NoError(t, err)
	f.svc.(*service).codes = &sequentialCodes{}
	_, err = f.svc.IssueContractorBatch(ctx, acme.ID, enums.CouponTypeSnacks, 40)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{Status: enums.CouponStatusIssued})
	require.NoError(t, err)
	require.Len(t, all, 66)
	seen := map[string]struct{}{}
	for i, c := range all {
		_, dup := seen[c.RedemptionCode]
		assert.False(t, dup, "duplicate live code %s", c.RedemptionCode)
		seen[c.RedemptionCode] = struct{}{}
		if i > 0 {
			assert.NotEqual(t, all[i-1].CouponID, c.CouponID)
		}
	}
}

func TestQRCodeRendersPNG(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	ana := f.addEmployee(t, 2, "Ana", enums.EmployeeRoleEmployee)

	pass, err := f.svc.GenerateGuestPass(ctx, ana.ID, enums.CouponTypeSnacks)
	require.NoError(t, err)

	png, err := f.svc.QRCode(ctx, pass.Coupon.CouponID, 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = f.svc.QRCode(ctx, "CPN-MISSING", 128)
	assert.Equal(t, pkgerrors.ReasonNotFound, reasonOf(t, err))
}
