package menus

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
)

// Repository handles daily menu persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts menu or replaces the row with the same id in place.
func (r *Repository) Upsert(ctx context.Context, menu *models.DailyMenu) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"date", "breakfast", "lunch_dinner", "snacks", "beverage", "notes", "updated_at"}),
		}).
		Create(menu).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.DailyMenu, error) {
	var menu models.DailyMenu
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&menu).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

// ListRange returns menus whose id falls within [from, to], ascending.
// Ids are YYYY-MM-DD so string order is calendar order.
func (r *Repository) ListRange(ctx context.Context, from, to string) ([]models.DailyMenu, error) {
	var rows []models.DailyMenu
	if err := r.db.WithContext(ctx).
		Where("id >= ? AND id <= ?", from, to).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
