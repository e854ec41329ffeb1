package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Repository persists product reviews.
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

// ProductExists reports whether an active product with id exists.
func (r *Repository) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	return count > 0, err
}

// EligibleOrder returns the most recent delivered or completed order of the
// user that contains the product. gorm.ErrRecordNotFound means none.
func (r *Repository) EligibleOrder(ctx context.Context, userID, productID uuid.UUID) (uuid.UUID, error) {
	var order models.ShopOrder
	err := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Select("shop_orders.id").
		Joins("JOIN order_items oi ON oi.order_id = shop_orders.id").
		Where("shop_orders.user_id = ? AND oi.product_id = ?", userID, productID).
		Where("shop_orders.status IN ?", enums.ReviewableOrderStatuses()).
		Order("shop_orders.created_at DESC").
		Take(&order).Error
	if err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ProductReview{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.DB(ctx).Omit("User").Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.DB(ctx).Preload("User").Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListApprovedForProduct is the public listing, newest first.
func (r *Repository) ListApprovedForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.ProductReview, int64, error) {
	query := r.DB(ctx).
		Model(&models.ProductReview{}).
		Preload("User").
		Where("product_id = ? AND is_approved = ?", productID, true)
	return r.page(query, params)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.ProductReview, int64, error) {
	query := r.DB(ctx).Model(&models.ProductReview{}).Where("user_id = ?", userID)
	return r.page(query, params)
}

// List is the admin listing.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.ProductReview, int64, error) {
	query := r.DB(ctx).Model(&models.ProductReview{}).Preload("User")
	if filters.IsApproved != nil {
		query = query.Where("is_approved = ?", *filters.IsApproved)
	}
	if filters.ProductID != nil {
		query = query.Where("product_id = ?", *filters.ProductID)
	}
	if filters.Rating != nil {
		query = query.Where("rating = ?", *filters.Rating)
	}
	return r.page(query, params)
}

func (r *Repository) page(query *gorm.DB, params pagination.Params) ([]models.ProductReview, int64, error) {
	var rows []models.ProductReview
	total, err := repo.Paginate(query, params, "created_at DESC, id DESC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Approve marks the review visible. It reports false when no row matched.
func (r *Repository) Approve(ctx context.Context, id, by uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.ProductReview{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_approved": true,
			"approved_at": at,
			"approved_by": by,
			"updated_at":  at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ProductReview{})
	return res.RowsAffected > 0, res.Error
}
