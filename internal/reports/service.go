package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	guestLabel = "Guest"
)

// Service computes read-only dashboards from the ledger.
type Service interface {
	AdminOverview(ctx context.Context) (*Overview, error)
	CanteenStats(ctx context.Context, day string) (*CanteenStats, error)
	EmployeeDashboard(ctx context.Context, employeeID int64) (*EmployeeDashboard, error)
}

type couponReader interface {
	List(ctx context.Context, filter coupons.ListFilter) ([]models.Coupon, error)
}

type employeeReader interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Employee, error)
}

type service struct {
	coupons   couponReader
	employees employeeReader
	loc       *time.Location
	now       func() time.Time
}

// NewService builds the reports service. Calendar days are taken in loc.
func NewService(couponRepo couponReader, employeeRepo employeeReader, loc *time.Location) (Service, error) {
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if employeeRepo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{coupons: couponRepo, employees: employeeRepo, loc: loc, now: time.Now}, nil
}

func (s *service) AdminOverview(ctx context.Context) (*Overview, error) {
	rows, err := s.coupons.List(ctx, coupons.ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}

	today := s.dayKey(s.now())
	out := &Overview{TotalIssued: len(rows), RedemptionRate: decimal.Zero}
	for _, c := range rows {
		if s.dayKey(c.DateIssued) == today {
			out.IssuedToday++
		}
		if c.Status != enums.CouponStatusRedeemed {
			continue
		}
		out.TotalRedeemed++
		if c.RedeemDate != nil && s.dayKey(*c.RedeemDate) == today {
			out.RedeemedToday++
		}
	}
	if out.TotalIssued > 0 {
		out.RedemptionRate = decimal.NewFromInt(int64(out.TotalRedeemed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(out.TotalIssued))).
			Round(2)
	}
	return out, nil
}

// CanteenStats reports redemptions for today, this month, and the given day
// (YYYY-MM-DD, defaulting to today).
func (s *service) CanteenStats(ctx context.Context, day string) (*CanteenStats, error) {
	now := s.now().In(s.loc)
	selected := strings.TrimSpace(day)
	if selected == "" {
		selected = now.Format(dateLayout)
	} else if _, err := time.ParseInLocation(dateLayout, selected, s.loc); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted as YYYY-MM-DD")
	}

	rows, err := s.coupons.List(ctx, coupons.ListFilter{Status: enums.CouponStatusRedeemed})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redeemed coupons")
	}

	today := now.Format(dateLayout)
	month := now.Format("2006-01")
	out := &CanteenStats{Date: selected, Groups: []RedeemedGroup{}}
	var picked []models.Coupon
	ownerIDs := map[int64]struct{}{}
	for _, c := range rows {
		if c.RedeemDate == nil {
			continue
		}
		key := s.dayKey(*c.RedeemDate)
		if key == today {
			out.Today.add(c.CouponType)
		}
		if strings.HasPrefix(key, month) {
			out.Month.add(c.CouponType)
		}
		if key == selected {
			picked = append(picked, c)
			if c.EmployeeID != nil {
				ownerIDs[*c.EmployeeID] = struct{}{}
			}
		}
	}

	names, err := s.names(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	byType := map[enums.CouponType][]RedeemedEntry{}
	for _, c := range picked {
		entry := RedeemedEntry{CouponID: c.CouponID, IsGuest: c.IsGuestCoupon, RedeemedAt: *c.RedeemDate}
		switch {
		case c.IsGuestCoupon:
			entry.EmployeeName = guestLabel
		case c.EmployeeID != nil:
			entry.EmployeeName = names[*c.EmployeeID]
		}
		byType[c.CouponType] = append(byType[c.CouponType], entry)
	}
	for _, t := range enums.CouponTypeDisplayOrder {
		if entries := byType[t]; len(entries) > 0 {
			out.Groups = append(out.Groups, RedeemedGroup{CouponType: t, Coupons: entries})
		}
	}
	return out, nil
}

func (s *service) EmployeeDashboard(ctx context.Context, employeeID int64) (*EmployeeDashboard, error) {
	owned, err := s.coupons.List(ctx, coupons.ListFilter{EmployeeID: &employeeID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employee coupons")
	}
	shared, err := s.coupons.List(ctx, coupons.ListFilter{SharedBy: &employeeID, GuestOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guest passes")
	}

	out := &EmployeeDashboard{
		NextAvailable:   []coupons.CouponDTO{},
		RedeemedHistory: []coupons.CouponDTO{},
		GuestHistory:    []coupons.CouponDTO{},
	}

	// owned is in storage order, so the first issued coupon per type wins ties.
	issued := make([]models.Coupon, 0, len(owned))
	var redeemed []models.Coupon
	for _, c := range owned {
		out.Totals.Total++
		if c.Status == enums.CouponStatusRedeemed {
			out.Totals.Used++
			if c.RedeemDate != nil {
				redeemed = append(redeemed, c)
			}
			continue
		}
		issued = append(issued, c)
	}
	out.Totals.Remaining = out.Totals.Total - out.Totals.Used

	sort.SliceStable(issued, func(i, j int) bool { return issued[i].DateIssued.Before(issued[j].DateIssued) })
	next := map[enums.CouponType]models.Coupon{}
	for _, c := range issued {
		if _, ok := next[c.CouponType]; !ok {
			next[c.CouponType] = c
		}
	}
	for _, t := range enums.CouponTypeDisplayOrder {
		if c, ok := next[t]; ok {
			out.NextAvailable = append(out.NextAvailable, coupons.FromModel(c))
		}
	}

	sort.SliceStable(redeemed, func(i, j int) bool { return redeemed[i].RedeemDate.After(*redeemed[j].RedeemDate) })
	for _, c := range redeemed {
		out.RedeemedHistory = append(out.RedeemedHistory, coupons.FromModel(c))
	}

	out.Guest.Generated = len(shared)
	sort.SliceStable(shared, func(i, j int) bool { return shared[i].DateIssued.After(shared[j].DateIssued) })
	for _, c := range shared {
		if c.Status == enums.CouponStatusRedeemed {
			out.Guest.Redeemed++
		}
		out.GuestHistory = append(out.GuestHistory, coupons.FromModel(c))
	}
	return out, nil
}

func (s *service) names(ctx context.Context, ids map[int64]struct{}) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	found, err := s.employees.FindByIDs(ctx, list)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employees")
	}
	for id, e := range found {
		out[id] = e.Name
	}
	return out, nil
}

func (s *service) dayKey(t time.Time) string {
	return t.In(s.loc).Format(dateLayout)
}

func (m *MealCounts) add(t enums.CouponType) {
	switch t {
	case enums.CouponTypeBreakfast:
		m.Breakfast++
	case enums.CouponTypeLunchDinner:
		m.LunchDinner++
	}
}
