package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

const (
	notConfiguredMessage = "AI service is not configured in this environment."
	unavailableMessage   = "Failed to get insights from the AI. The service may be temporarily unavailable."
	dateLayout           = "2006-01-02"
	notApplicable        = "N/A"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`You are an AI assistant for a Canteen Management System.
Analyze the provided JSON data to answer the user's question about coupon usage.
The current date is {{.Today}}.
The JSON data contains two arrays: 'employees' and 'coupons'.
- The 'employees' array links employee IDs to their roles, departments, and contractors.
- The 'coupons' array contains records of every coupon, including its type, status, issue date, and redemption date.

Provide a clear, concise, and helpful answer. Use bullet points for lists if it makes the answer clearer.

JSON Data:
{{.Data}}

User's Question:
"{{.Question}}"
`))

// AskRequest is an admin's natural-language question.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// Answer is the model's reply. Configured is false when no API key is set,
// in which case Text explains that.
type Answer struct {
	Text       string `json:"text"`
	Configured bool   `json:"configured"`
}

type Service interface {
	Ask(ctx context.Context, question string) (*Answer, error)
}

type couponLister interface {
	List(ctx context.Context, filter coupons.ListFilter) ([]models.Coupon, error)
}

type employeeLister interface {
	List(ctx context.Context) ([]models.Employee, error)
}

type service struct {
	generator Generator
	coupons   couponLister
	employees employeeLister
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the insights service. generator may be nil, which makes
// every answer the not-configured message.
func NewService(generator Generator, couponRepo couponLister, employeeRepo employeeLister, logg *logger.Logger) (Service, error) {
	if couponRepo == nil || employeeRepo == nil {
		return nil, fmt.Errorf("coupon and employee repositories required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{generator: generator, coupons: couponRepo, employees: employeeRepo, logg: logg, now: time.Now}, nil
}

type employeeProjection struct {
	ID         int64  `json:"id"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Contractor string `json:"contractor"`
}

type couponProjection struct {
	EmployeeID *int64  `json:"employeeId"`
	CouponType string  `json:"couponType"`
	Status     string  `json:"status"`
	DateIssued string  `json:"dateIssued"`
	RedeemDate *string `json:"redeemDate"`
}

func (s *service) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question is required")
	}
	if s.generator == nil {
		return &Answer{Text: notConfiguredMessage}, nil
	}

	prompt, err := s.buildPrompt(ctx, question)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logg.Error(ctx, "insights.generate_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, unavailableMessage)
	}
	return &Answer{Text: text, Configured: true}, nil
}

func (s *service) buildPrompt(ctx context.Context, question string) (string, error) {
	staff, err := s.employees.List(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	rows, err := s.coupons.List(ctx, coupons.ListFilter{})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}

	data := struct {
		Employees []employeeProjection `json:"employees"`
		Coupons   []couponProjection   `json:"coupons"`
	}{
		Employees: make([]employeeProjection, 0, len(staff)),
		Coupons:   make([]couponProjection, 0, len(rows)),
	}
	for _, e := range staff {
		data.Employees = append(data.Employees, employeeProjection{
			ID:         e.ID,
			Role:       string(e.Role),
			Department: orNA(e.Department),
			Contractor: orNA(e.Contractor),
		})
	}
	for _, c := range rows {
		p := couponProjection{
			EmployeeID: c.EmployeeID,
			CouponType: string(c.CouponType),
			Status:     string(c.Status),
			DateIssued: c.DateIssued.UTC().Format(dateLayout),
		}
		if c.RedeemDate != nil {
			day := c.RedeemDate.UTC().Format(dateLayout)
			p.RedeemDate = &day
		}
		data.Coupons = append(data.Coupons, p)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal insight data")
	}

	var b strings.Builder
	err = promptTemplate.Execute(&b, map[string]string{
		"Today":    s.now().UTC().Format(dateLayout),
		"Data":     string(raw),
		"Question": question,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render prompt")
	}
	return b.String(), nil
}

func orNA(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return notApplicable
	}
	return *v
}
