package discounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// ListFilters narrows the admin discount list.
type ListFilters struct {
	Search   string
	IsActive *bool
}

// Repository persists discount codes.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByCode matches codes case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var row models.Discount
	err := r.DB(ctx).Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var row models.Discount
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Discount, int64, error) {
	query := r.DB(ctx).Model(&models.Discount{})
	if term := strings.TrimSpace(filters.Search); term != "" {
		like := "%" + strings.ToUpper(term) + "%"
		query = query.Where("(UPPER(code) LIKE ? OR UPPER(COALESCE(description, '')) LIKE ?)", like, like)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	var rows []models.Discount
	total, err := repo.Paginate(query, params, "created_at DESC", &rows)
	return rows, total, err
}

func (r *Repository) Create(ctx context.Context, d *models.Discount) error {
	return r.DB(ctx).Create(d).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.Discount{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Discount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.ShopOrder{}).Where("discount_id = ?", id).Count(&count).Error
	return count, err
}

// IncrementUsage bumps used_count by one.
func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Discount{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

// DecrementUsage gives a use back when an order is cancelled. It never goes below zero.
func (r *Repository) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Discount{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// DeactivateEnded switches off active codes whose window closed before now.
func (r *Repository) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Discount{}).
		Where("is_active = ? AND ends_at < ?", true, now).
		Updates(map[string]any{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}

// DeactivateUsedUp switches off active codes that reached their usage cap.
func (r *Repository) DeactivateUsedUp(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Discount{}).
		Where("is_active = ? AND max_uses IS NOT NULL AND used_count >= max_uses", true).
		Updates(map[string]any{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}
