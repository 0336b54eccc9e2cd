package menus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

// DateLayout is the menu key format.
const DateLayout = "2006-01-02"

const maxRangeDays = 62

// Content is the editable part of a menu.
type Content struct {
	Breakfast   string `json:"breakfast"`
	LunchDinner string `json:"lunchDinner"`
	Snacks      string `json:"snacks"`
	Beverage    string `json:"beverage"`
	Notes       string `json:"notes"`
}

// MenuDTO is the public view of a daily menu.
type MenuDTO struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Content
}

func FromModel(m models.DailyMenu) MenuDTO {
	return MenuDTO{
		ID:   m.ID,
		Date: m.Date,
		Content: Content{
			Breakfast:   m.Breakfast,
			LunchDinner: m.LunchDinner,
			Snacks:      m.Snacks,
			Beverage:    m.Beverage,
			Notes:       m.Notes,
		},
	}
}

type Service interface {
	Upsert(ctx context.Context, id string, content Content) (*MenuDTO, error)
	Get(ctx context.Context, id string) (*MenuDTO, error)
	Today(ctx context.Context) (*MenuDTO, error)
	List(ctx context.Context, from, to string) ([]MenuDTO, error)
}

type service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService wires the menu registry. loc decides which calendar day is today.
func NewService(repo *Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

// ParseDay validates a YYYY-MM-DD key and returns noon UTC of that day.
func ParseDay(id string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(id))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted YYYY-MM-DD")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC), nil
}

func (s *service) Upsert(ctx context.Context, id string, content Content) (*MenuDTO, error) {
	date, err := ParseDay(id)
	if err != nil {
		return nil, err
	}
	row := models.DailyMenu{
		ID:          date.Format(DateLayout),
		Date:        date,
		Breakfast:   strings.TrimSpace(content.Breakfast),
		LunchDinner: strings.TrimSpace(content.LunchDinner),
		Snacks:      strings.TrimSpace(content.Snacks),
		Beverage:    strings.TrimSpace(content.Beverage),
		Notes:       strings.TrimSpace(content.Notes),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save menu")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id string) (*MenuDTO, error) {
	date, err := ParseDay(id)
	if err != nil {
		return nil, err
	}
	menu, err := s.repo.FindByID(ctx, date.Format(DateLayout))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "No menu has been published for this date.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	dto := FromModel(*menu)
	return &dto, nil
}

func (s *service) Today(ctx context.Context) (*MenuDTO, error) {
	return s.Get(ctx, s.now().In(s.loc).Format(DateLayout))
}

func (s *service) List(ctx context.Context, from, to string) ([]MenuDTO, error) {
	start, err := ParseDay(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDay(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must not precede start")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("range may span at most %d days", maxRangeDays))
	}
	rows, err := s.repo.ListRange(ctx, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menus")
	}
	out := make([]MenuDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}
