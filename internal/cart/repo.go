package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByUser loads the user's cart with each line's product item and product.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Items.ProductItem").
		Preload("Items.ProductItem.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.ShoppingCart) error {
	return r.DB(ctx).Create(cart).Error
}

// Touch bumps updated_at so abandoned carts can be told apart from live ones.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.ShoppingCart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *Repository) FindLine(ctx context.Context, cartID, productItemID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_item_id = ?", cartID, productItemID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) FindLineByID(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.DB(ctx).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.CartItem) error {
	return r.DB(ctx).Create(line).Error
}

func (r *Repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	res := r.DB(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// LoadProductItem returns the item with its product so callers can check both
// active flags.
func (r *Repository) LoadProductItem(ctx context.Context, id uuid.UUID) (*models.ProductItem, error) {
	var item models.ProductItem
	if err := r.DB(ctx).Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
