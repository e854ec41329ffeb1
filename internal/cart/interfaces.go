package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and by order placement.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	Create(ctx context.Context, cart *models.ShoppingCart) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	FindLine(ctx context.Context, cartID, productItemID uuid.UUID) (*models.CartItem, error)
	FindLineByID(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	LoadProductItem(ctx context.Context, id uuid.UUID) (*models.ProductItem, error)
}
