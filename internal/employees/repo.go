package employees

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Repository handles employee persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to employee operations.
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

// Create persists a new employee row.
func (r *Repository) Create(ctx context.Context, employee *models.Employee) error {
	if employee == nil {
		return fmt.Errorf("employee is required")
	}
	return r.db.WithContext(ctx).Create(employee).Error
}

// Save replaces the stored row with employee.
func (r *Repository) Save(ctx context.Context, employee *models.Employee) error {
	if employee == nil {
		return fmt.Errorf("employee is required")
	}
	return r.db.WithContext(ctx).Save(employee).Error
}

// FindByID loads an employee by registry id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByEmployeeID loads an employee by login handle.
func (r *Repository) FindByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByIDs loads every employee in ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Employee, error) {
	out := make(map[int64]models.Employee, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Employee
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List returns every employee ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.Employee, error) {
	var rows []models.Employee
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByContractor returns employees affiliated with businessName.
func (r *Repository) ListByContractor(ctx context.Context, businessName string) ([]models.Employee, error) {
	var rows []models.Employee
	if err := r.db.WithContext(ctx).
		Where("contractor = ?", businessName).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MaxID returns the highest assigned id, or zero for an empty registry.
func (r *Repository) MaxID(ctx context.Context) (int64, error) {
	var max *int64
	if err := r.db.WithContext(ctx).Model(&models.Employee{}).Select("MAX(id)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// Count returns the number of employees.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Employee{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdatePasswordHash overwrites the stored hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// UpdateStatus sets the account status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.EmployeeStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// DeleteCascade removes the employee together with the coupons they own and
// their notifications. Guest passes they shared stay behind.
func (r *Repository) DeleteCascade(ctx context.Context, id int64) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("employee_id = ?", id).Delete(&models.Coupon{}).Error; err != nil {
		return fmt.Errorf("delete coupons: %w", err)
	}
	if err := conn.Where("employee_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return conn.Where("id = ?", id).Delete(&models.Employee{}).Error
}
