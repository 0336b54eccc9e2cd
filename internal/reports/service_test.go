package reports

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

type fakeCoupons struct {
	rows []models.Coupon
}

// List applies the subset of filters the reports use.
func (f fakeCoupons) List(_ context.Context, filter coupons.ListFilter) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, c := range f.rows {
		if filter.EmployeeID != nil && (c.EmployeeID == nil || *c.EmployeeID != *filter.EmployeeID) {
			continue
		}
		if filter.SharedBy != nil && (c.SharedByEmployeeID == nil || *c.SharedByEmployeeID != *filter.SharedBy) {
			continue
		}
		if filter.GuestOnly && !c.IsGuestCoupon {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeEmployees map[int64]models.Employee

func (f fakeEmployees) FindByIDs(_ context.Context, ids []int64) (map[int64]models.Employee, error) {
	out := map[int64]models.Employee{}
	for _, id := range ids {
		if e, ok := f[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

var now = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func coupon(id string, owner int64, t enums.CouponType, issued time.Time, redeemed *time.Time) models.Coupon {
	c := models.Coupon{
		CouponID:   id,
		EmployeeID: ptr(owner),
		CouponType: t,
		DateIssued: issued,
		Status:     enums.CouponStatusIssued,
	}
	if redeemed != nil {
		c.Status = enums.CouponStatusRedeemed
		c.RedeemDate = redeemed
	}
	return c
}

func newTestService(t *testing.T, rows []models.Coupon) Service {
	t.Helper()
	svc, err := NewService(fakeCoupons{rows: rows}, fakeEmployees{2: {ID: 2, Name: "Ana"}}, time.UTC)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time { return now }
	return svc
}

func TestAdminOverview(t *testing.T) {
	lastWeek := now.AddDate(0, 0, -7)
	svc := newTestService(t, []models.Coupon{
		coupon("a", 2, enums.CouponTypeBreakfast, lastWeek, ptr(now)),
		coupon("b", 2, enums.CouponTypeBreakfast, lastWeek, ptr(lastWeek)),
		coupon("c", 2, enums.CouponTypeBreakfast, now, nil),
	})

	got, err := svc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if got.TotalIssued != 3 || got.TotalRedeemed != 2 || got.IssuedToday != 1 || got.RedeemedToday != 1 {
		t.Fatalf("unexpected overview %+v", got)
	}
	if got.RedemptionRate.StringFixed(2) != "66.67" {
		t.Fatalf("expected 66.67, got %s", got.RedemptionRate.StringFixed(2))
	}
}

func TestAdminOverviewEmptyLedger(t *testing.T) {
	got, err := newTestService(t, nil).AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !got.RedemptionRate.IsZero() {
		t.Fatalf("expected zero rate, got %s", got.RedemptionRate)
	}
}

func TestCanteenStatsGroupsSelectedDay(t *testing.T) {
	earlier := now.AddDate(0, 0, -3)
	guest := coupon("g", 0, enums.CouponTypeSnacks, earlier, ptr(earlier))
	guest.EmployeeID = nil
	guest.IsGuestCoupon = true
	svc := newTestService(t, []models.Coupon{
		coupon("a", 2, enums.CouponTypeBreakfast, earlier, ptr(now)),
		coupon("b", 2, enums.CouponTypeLunchDinner, earlier, ptr(earlier)),
		coupon("c", 2, enums.CouponTypeBreakfast, earlier, ptr(now.AddDate(0, -1, 0))),
		guest,
	})

	got, err := svc.CanteenStats(context.Background(), "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.Date != "2026-03-10" || got.Today.Breakfast != 1 || got.Today.LunchDinner != 0 {
		t.Fatalf("unexpected today %+v", got)
	}
	if got.Month.Breakfast != 1 || got.Month.LunchDinner != 1 {
		t.Fatalf("unexpected month %+v", got.Month)
	}

	got, err = svc.CanteenStats(context.Background(), "2026-03-07")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(got.Groups) != 2 {
		t.Fatalf("expected two groups, got %+v", got.Groups)
	}
	if got.Groups[0].CouponType != enums.CouponTypeLunchDinner || got.Groups[0].Coupons[0].EmployeeName != "Ana" {
		t.Fatalf("unexpected first group %+v", got.Groups[0])
	}
	if got.Groups[1].Coupons[0].EmployeeName != "Guest" || !got.Groups[1].Coupons[0].IsGuest {
		t.Fatalf("unexpected guest group %+v", got.Groups[1])
	}

	if _, err := svc.CanteenStats(context.Background(), "10/03/2026"); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEmployeeDashboard(t *testing.T) {
	march := time.Date(2026, time.March, 1, 5, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 5, 0, 0, 0, time.UTC)
	shared := coupon("g1", 0, enums.CouponTypeBeverage, now, ptr(now))
	shared.EmployeeID = nil
	shared.IsGuestCoupon = true
	shared.SharedByEmployeeID = ptr(int64(2))
	svc := newTestService(t, []models.Coupon{
		coupon("b-mar", 2, enums.CouponTypeBreakfast, march, nil),
		coupon("b-feb", 2, enums.CouponTypeBreakfast, feb, nil),
		coupon("l-mar", 2, enums.CouponTypeLunchDinner, march, nil),
		coupon("l-used", 2, enums.CouponTypeLunchDinner, feb, ptr(march)),
		coupon("s-used", 2, enums.CouponTypeSnacks, feb, ptr(now)),
		coupon("other", 9, enums.CouponTypeSnacks, feb, nil),
		shared,
	})

	got, err := svc.EmployeeDashboard(context.Background(), 2)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(got.NextAvailable) != 2 {
		t.Fatalf("expected two next coupons, got %+v", got.NextAvailable)
	}
	if got.NextAvailable[0].CouponID != "l-mar" || got.NextAvailable[1].CouponID != "b-feb" {
		t.Fatalf("unexpected next order %s, %s", got.NextAvailable[0].CouponID, got.NextAvailable[1].CouponID)
	}
	if got.Totals != (Totals{Total: 5, Used: 2, Remaining: 3}) {
		t.Fatalf("unexpected totals %+v", got.Totals)
	}
	if got.Guest != (GuestStats{Generated: 1, Redeemed: 1}) {
		t.Fatalf("unexpected guest stats %+v", got.Guest)
	}
	if got.RedeemedHistory[0].CouponID != "s-used" || got.RedeemedHistory[1].CouponID != "l-used" {
		t.Fatalf("expected newest redemption first, got %+v", got.RedeemedHistory)
	}
	if len(got.GuestHistory) != 1 || got.GuestHistory[0].CouponID != "g1" {
		t.Fatalf("unexpected guest history %+v", got.GuestHistory)
	}
}
