package models

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingCart is the per-user singleton cart.
type ShoppingCart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShoppingCart) TableName() string { return "shopping_carts" }

// CartItem is one line of a cart. (cart_id, product_item_id) is unique.
type CartItem struct {
	ID            uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID    `gorm:"column:cart_id;type:uuid;not null"`
	ProductItemID uuid.UUID    `gorm:"column:product_item_id;type:uuid;not null"`
	Quantity      int          `gorm:"column:quantity;not null"`
	ProductItem   *ProductItem `gorm:"foreignKey:ProductItemID"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
