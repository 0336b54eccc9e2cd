package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	Create(ctx context.Context, employeeID int64, kind enums.NotificationType, message string) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, employeeID int64) (int64, error)
	MarkRead(ctx context.Context, employeeID int64, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, employeeID int64) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	EmployeeID int64
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items       []models.Notification `json:"items"`
	Cursor      string                `json:"cursor"`
	UnreadCount int64                 `json:"unreadCount"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Build prepares an unread notification row stamped at now.
func Build(employeeID int64, kind enums.NotificationType, message string, now time.Time) models.Notification {
	return models.Notification{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Type:       kind,
		Message:    message,
		CreatedAt:  now.UTC(),
	}
}

func (s *service) Create(ctx context.Context, employeeID int64, kind enums.NotificationType, message string) (*models.Notification, error) {
	if employeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}

	row := Build(employeeID, kind, message, s.now())
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return &row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.EmployeeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	query := listNotificationsParams{
		EmployeeID: params.EmployeeID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.EmployeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	return &ListResult{
		Items:       rows,
		Cursor:      cursor,
		UnreadCount: unread,
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, employeeID int64) (int64, error) {
	if employeeID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	count, err := s.repo.CountUnread(ctx, employeeID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead flags one notification as read. Notifications of other employees
// are reported as not found.
func (s *service) MarkRead(ctx context.Context, employeeID int64, notificationID uuid.UUID) error {
	if employeeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, employeeID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, employeeID int64) (int64, error) {
	if employeeID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	count, err := s.repo.MarkAllRead(ctx, employeeID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
