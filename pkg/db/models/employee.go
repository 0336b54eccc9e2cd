package models

import (
	"time"

	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Employee is a registry record that can log in and own coupons.
type Employee struct {
	ID           int64                `gorm:"column:id;primaryKey;autoIncrement:false"`
	EmployeeID   string               `gorm:"column:employee_id;type:text;not null;uniqueIndex"`
	Name         string               `gorm:"column:name;type:text;not null"`
	Email        *string              `gorm:"column:email;type:text"`
	PasswordHash string               `gorm:"column:password_hash;type:text;not null"`
	Role         enums.EmployeeRole   `gorm:"column:role;type:text;not null"`
	Department   *string              `gorm:"column:department;type:text"`
	Contractor   *string              `gorm:"column:contractor;type:text"`
	Status       enums.EmployeeStatus `gorm:"column:status;type:text;not null;default:active"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string { return "employees" }

// IsActive reports whether the employee may log in and redeem.
func (e Employee) IsActive() bool {
	return e.Status == enums.EmployeeStatusActive
}
