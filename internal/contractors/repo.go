package contractors

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
)

// Repository handles contractor persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to contractor operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, contractor *models.Contractor) error {
	if contractor == nil {
		return fmt.Errorf("contractor is required")
	}
	return r.db.WithContext(ctx).Create(contractor).Error
}

func (r *Repository) Save(ctx context.Context, contractor *models.Contractor) error {
	if contractor == nil {
		return fmt.Errorf("contractor is required")
	}
	return r.db.WithContext(ctx).Save(contractor).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Contractor, error) {
	var contractor models.Contractor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contractor).Error; err != nil {
		return nil, err
	}
	return &contractor, nil
}

// FindByContractorID loads a contractor by login handle.
func (r *Repository) FindByContractorID(ctx context.Context, contractorID string) (*models.Contractor, error) {
	var contractor models.Contractor
	if err := r.db.WithContext(ctx).Where("contractor_id = ?", contractorID).First(&contractor).Error; err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Contractor, error) {
	var rows []models.Contractor
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BusinessNames returns every business name in ascending order.
func (r *Repository) BusinessNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.Contractor{}).
		Order("business_name ASC").
		Pluck("business_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Repository) MaxID(ctx context.Context) (int64, error) {
	var max *int64
	if err := r.db.WithContext(ctx).Model(&models.Contractor{}).Select("MAX(id)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Contractor{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Contractor{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// DeleteCascade removes the contractor and every coupon it issued, pooled or
// already assigned, and detaches its affiliated employees.
func (r *Repository) DeleteCascade(ctx context.Context, contractor models.Contractor) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Model(&models.Employee{}).
		Where("contractor = ?", contractor.BusinessName).
		Update("contractor", nil).Error; err != nil {
		return fmt.Errorf("detach employees: %w", err)
	}
	if err := conn.Where("contractor_id = ?", contractor.ID).Delete(&models.Coupon{}).Error; err != nil {
		return fmt.Errorf("delete coupons: %w", err)
	}
	return conn.Where("id = ?", contractor.ID).Delete(&models.Contractor{}).Error
}
