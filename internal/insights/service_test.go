package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

type stubCoupons []models.Coupon

func (s stubCoupons) List(context.Context, coupons.ListFilter) ([]models.Coupon, error) {
	return s, nil
}

type stubEmployees []models.Employee

func (s stubEmployees) List(context.Context) ([]models.Employee, error) {
	return s, nil
}

func fixtures() (stubCoupons, stubEmployees) {
	dept := "Finance"
	owner := int64(2)
	redeemed := time.Date(2026, time.March, 9, 13, 0, 0, 0, time.UTC)
	return stubCoupons{{
			EmployeeID: &owner,
			CouponType: enums.CouponTypeLunchDinner,
			Status:     enums.CouponStatusRedeemed,
			DateIssued: time.Date(2026, time.March, 1, 4, 0, 0, 0, time.UTC),
			RedeemDate: &redeemed,
		}}, stubEmployees{
			{ID: 2, Role: enums.EmployeeRoleEmployee, Department: &dept},
		}
}

func TestAskWithoutGenerator(t *testing.T) {
	c, e := fixtures()
	svc, err := NewService(nil, c, e, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	answer, err := svc.Ask(context.Background(), "How many lunches?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.Configured || answer.Text != notConfiguredMessage {
		t.Fatalf("unexpected answer %+v", answer)
	}
}

func TestAskSendsPromptToGemini(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Ana "},{"text":"ate lunch."}]}}]}`))
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c, e := fixtures()
	svc, err := NewService(client, c, e, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time { return time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC) }

	answer, err := svc.Ask(context.Background(), " Who ate lunch? ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !answer.Configured || answer.Text != "Ana ate lunch." {
		t.Fatalf("unexpected answer %+v", answer)
	}
	for _, want := range []string{
		"The current date is 2026-03-10.",
		`"contractor":"N/A"`,
		`"department":"Finance"`,
		`"redeemDate":"2026-03-09"`,
		`"dateIssued":"2026-03-01"`,
		`"Who ate lunch?"`,
	} {
		if !strings.Contains(gotPrompt, want) {
			t.Fatalf("prompt missing %s:\n%s", want, gotPrompt)
		}
	}
}

func TestAskMapsFailuresToOneMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c, e := fixtures()
	svc, _ := NewService(client, c, e, nil)

	_, err = svc.Ask(context.Background(), "anything")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency || typed.Message() != unavailableMessage {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	c, e := fixtures()
	svc, _ := NewService(nil, c, e, nil)
	if _, err := svc.Ask(context.Background(), "  "); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected missing key to fail")
	}
}
