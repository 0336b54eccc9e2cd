package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts coupon ledger activity.
type LedgerMetrics struct {
	issued   *prometheus.CounterVec
	redeemed *prometheus.CounterVec
	removed  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_issued_total",
		Help: "Coupons created, by meal type and source.",
	}, []string{"coupon_type", "source"})
	redeemed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_redeemed_total",
		Help: "Coupons redeemed, by meal type.",
	}, []string{"coupon_type", "guest"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_removed_total",
		Help: "Unredeemed coupons deleted by admins.",
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_failures_total",
		Help: "Rejected ledger operations, by operation and reason.",
	}, []string{"operation", "reason"})
	reg.MustRegister(issued, redeemed, removed, failures)
	return &LedgerMetrics{
		issued:   issued,
		redeemed: redeemed,
		removed:  removed,
		failures: failures,
	}
}

// AddIssued records n coupons of couponType created by source
// (employee_batch, contractor_batch, guest_pass).
func (m *LedgerMetrics) AddIssued(couponType, source string, n int) {
	if m == nil || m.issued == nil || n <= 0 {
		return
	}
	m.issued.WithLabelValues(normalizeLabel(couponType), normalizeLabel(source)).Add(float64(n))
}

// IncRedeemed records one redemption.
func (m *LedgerMetrics) IncRedeemed(couponType string, guest bool) {
	if m == nil || m.redeemed == nil {
		return
	}
	label := "false"
	if guest {
		label = "true"
	}
	m.redeemed.WithLabelValues(normalizeLabel(couponType), label).Inc()
}

// AddRemoved records n deleted coupons.
func (m *LedgerMetrics) AddRemoved(operation string, n int) {
	if m == nil || m.removed == nil || n <= 0 {
		return
	}
	m.removed.WithLabelValues(normalizeLabel(operation)).Add(float64(n))
}

// IncFailure increments the failure counter for operation.
func (m *LedgerMetrics) IncFailure(operation, reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
