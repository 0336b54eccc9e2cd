package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
)

type stubWindowLimiter struct {
	counts map[string]int64
}

func (s *stubWindowLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func TestAccountRateLimitBlocksPerAccount(t *testing.T) {
	limiter := &stubWindowLimiter{}
	handler := AccountRateLimit("insights", limiter, 2, time.Minute, nil)(http.HandlerFunc(okHandler))

	serve := func(id int64) int {
		p := pkgAuth.EmployeePrincipal(&models.Employee{ID: id}, "access")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", nil)
		req = req.WithContext(pkgAuth.WithPrincipal(req.Context(), p))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	for i := 0; i < 2; i++ {
		if code := serve(1); code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, code)
		}
	}
	if code := serve(1); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", code)
	}
	if code := serve(2); code != http.StatusOK {
		t.Fatalf("other account should not share the bucket, got %d", code)
	}
	if _, ok := limiter.counts["insights:employee:1"]; !ok {
		t.Fatalf("unexpected scopes %v", limiter.counts)
	}
}

func TestAccountRateLimitDisabledWithoutLimiter(t *testing.T) {
	handler := AccountRateLimit("insights", nil, 1, time.Minute, nil)(http.HandlerFunc(okHandler))
	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
