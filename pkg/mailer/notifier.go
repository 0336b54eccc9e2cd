package mailer

import (
	"context"
	"fmt"

	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

// CouponNotifier tells an employee about freshly issued coupons. Callers
// ignore the returned error; delivery is best effort.
type CouponNotifier interface {
	SendCouponNotification(ctx context.Context, employee models.Employee, count int, couponType enums.CouponType) error
}

type sender interface {
	Send(ctx context.Context, msg Message) error
}

type couponMailer struct {
	sender sender
	logg   *logger.Logger
}

// NewCouponNotifier returns a SendGrid-backed notifier when an API key is
// configured and a log-only notifier otherwise.
func NewCouponNotifier(cfg config.SendgridConfig, logg *logger.Logger) (CouponNotifier, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	if !cfg.Enabled() {
		return &couponMailer{logg: logg}, nil
	}
	client, err := NewClient(cfg.APIKey, cfg.DefaultFrom, WithBaseURL(cfg.BaseURL), WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}
	return &couponMailer{sender: client, logg: logg}, nil
}

func (m *couponMailer) SendCouponNotification(ctx context.Context, employee models.Employee, count int, couponType enums.CouponType) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"employee_id": employee.ID,
		"coupon_type": string(couponType),
		"count":       count,
	})
	if m.sender == nil || employee.Email == nil || *employee.Email == "" {
		m.logg.Info(ctx, "mailer.coupon_notification.skipped")
		return nil
	}

	err := m.sender.Send(ctx, Message{
		To:      *employee.Email,
		ToName:  employee.Name,
		Subject: fmt.Sprintf("%d new %s coupon(s)", count, couponType),
		Body:    fmt.Sprintf("Hello %s,\n\nYou have received %d new %s coupon(s). Open the canteen portal to view them.\n", employee.Name, count, couponType),
	})
	if err != nil {
		m.logg.Warn(ctx, "mailer.coupon_notification.failed")
		return err
	}
	m.logg.Info(ctx, "mailer.coupon_notification.sent")
	return nil
}
