package coupons

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// Repository handles coupon persistence.
type Repository struct {
	db *gorm.DB
}

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

// ListFilter narrows coupon listings. Zero fields do not filter.
type ListFilter struct {
	EmployeeID   *int64
	ContractorID *int64
	SharedBy     *int64
	Status       enums.CouponStatus
	CouponType   enums.CouponType
	GuestOnly    bool
}

// InsertBatch stores coupons in one statement.
func (r *Repository) InsertBatch(ctx context.Context, rows []models.Coupon) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// NextSequence returns the storage position for the next coupon.
func (r *Repository) NextSequence(ctx context.Context) (int64, error) {
	var max *int64
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).Select("MAX(sequence)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// LiveCodes returns the redemption codes of every issued coupon.
func (r *Repository) LiveCodes(ctx context.Context) (map[string]struct{}, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("status = ?", enums.CouponStatusIssued).
		Pluck("redemption_code", &codes).Error; err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		live[code] = struct{}{}
	}
	return live, nil
}

// List returns coupons matching filter in storage order.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ContractorID != nil {
		query = query.Where("contractor_id = ?", *filter.ContractorID)
	}
	if filter.SharedBy != nil {
		query = query.Where("shared_by_employee_id = ?", *filter.SharedBy)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CouponType != "" {
		query = query.Where("coupon_type = ?", filter.CouponType)
	}
	if filter.GuestOnly {
		query = query.Where("is_guest_coupon = ?", true)
	}

	var rows []models.Coupon
	if err := query.Order("sequence ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Pool returns the unassigned issued coupons of a contractor for one type,
// in storage order.
func (r *Repository) Pool(ctx context.Context, contractorID int64, couponType enums.CouponType) ([]models.Coupon, error) {
	var rows []models.Coupon
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND coupon_type = ? AND status = ? AND employee_id IS NULL",
			contractorID, couponType, enums.CouponStatusIssued).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignEmployee stamps employeeID on the given coupons.
func (r *Repository) AssignEmployee(ctx context.Context, couponIDs []string, employeeID int64) (int64, error) {
	if len(couponIDs) == 0 {
		return 0, nil
	}
	var total int64
	for _, chunk := range chunkIDs(couponIDs) {
		result := r.db.WithContext(ctx).
			Model(&models.Coupon{}).
			Where("coupon_id IN ? AND employee_id IS NULL", chunk).
			Update("employee_id", employeeID)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	return total, nil
}

func (r *Repository) FindByID(ctx context.Context, couponID string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("coupon_id = ?", couponID).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode loads the coupon carrying code with the given status. Issued
// codes are unique, redeemed ones may repeat; the latest is returned.
func (r *Repository) FindByCode(ctx context.Context, code string, status enums.CouponStatus) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("redemption_code = ? AND status = ?", code, status).
		Order("sequence DESC").
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// MarkRedeemed performs the one-way issued -> redeemed transition.
func (r *Repository) MarkRedeemed(ctx context.Context, coupon *models.Coupon) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("coupon_id = ? AND status = ?", coupon.CouponID, enums.CouponStatusIssued).
		Updates(map[string]any{
			"status":      enums.CouponStatusRedeemed,
			"redeem_date": coupon.RedeemDate,
		})
	return result.RowsAffected == 1, result.Error
}

// DeleteIssued removes issued coupons by id and reports how many went.
func (r *Repository) DeleteIssued(ctx context.Context, couponIDs []string) (int64, error) {
	if len(couponIDs) == 0 {
		return 0, nil
	}
	var total int64
	for _, chunk := range chunkIDs(couponIDs) {
		result := r.db.WithContext(ctx).
			Where("coupon_id IN ? AND status = ?", chunk, enums.CouponStatusIssued).
			Delete(&models.Coupon{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	return total, nil
}

// chunkIDs keeps IN lists under SQLite's bound-parameter limit.
func chunkIDs(ids []string) [][]string {
	const size = 500
	chunks := make([][]string, 0, len(ids)/size+1)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
