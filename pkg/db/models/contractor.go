package models

import "time"

// Contractor is a business that buys coupon pools for its staff.
type Contractor struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	ContractorID string    `gorm:"column:contractor_id;type:text;not null;uniqueIndex"`
	BusinessName string    `gorm:"column:business_name;type:text;not null"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Contractor) TableName() string { return "contractors" }
