package models

import "time"

// DailyMenu is keyed by its calendar date (YYYY-MM-DD). Date is noon UTC of
// that day so every time zone renders the same calendar day.
type DailyMenu struct {
	ID          string    `gorm:"column:id;primaryKey;type:text"`
	Date        time.Time `gorm:"column:date;not null"`
	Breakfast   string    `gorm:"column:breakfast;type:text;not null;default:''"`
	LunchDinner string    `gorm:"column:lunch_dinner;type:text;not null;default:''"`
	Snacks      string    `gorm:"column:snacks;type:text;not null;default:''"`
	Beverage    string    `gorm:"column:beverage;type:text;not null;default:''"`
	Notes       string    `gorm:"column:notes;type:text;not null;default:''"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailyMenu) TableName() string { return "daily_menus" }
