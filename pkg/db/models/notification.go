package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Notification is an in-app notice addressed to one employee.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:text;primaryKey"`
	EmployeeID int64                  `gorm:"column:employee_id;not null;index"`
	Type       enums.NotificationType `gorm:"column:type;type:text;not null"`
	Message    string                 `gorm:"column:message;type:text;not null"`
	IsRead     bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt  time.Time              `gorm:"column:created_at;not null"`
}

func (Notification) TableName() string { return "notifications" }
