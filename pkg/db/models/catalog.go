package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products; categories may nest one level through ParentID.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Description *string    `gorm:"column:description"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string { return "product_categories" }

// Brand is the manufacturer of a product (Cisco, MikroTik, Ubiquiti...).
type Brand struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	LogoURL     *string   `gorm:"column:logo_url"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Product is the sellable concept. Price and stock live on its items.
type Product struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID     `gorm:"column:category_id;type:uuid;not null"`
	BrandID     *uuid.UUID    `gorm:"column:brand_id;type:uuid"`
	Name        string        `gorm:"column:name;not null"`
	Slug        string        `gorm:"column:slug;not null;uniqueIndex"`
	Description *string       `gorm:"column:description"`
	ImageURL    *string       `gorm:"column:image_url"`
	IsActive    bool          `gorm:"column:is_active;not null"`
	Category    *Category     `gorm:"foreignKey:CategoryID"`
	Brand       *Brand        `gorm:"foreignKey:BrandID"`
	Items       []ProductItem `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductItem is a purchasable SKU of a product.
type ProductItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU           string          `gorm:"column:sku;not null;uniqueIndex"`
	Name          *string         `gorm:"column:name"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null"`
	WeightKg      decimal.Decimal `gorm:"column:weight_kg;type:numeric(10,3);not null"`
	IsActive      bool            `gorm:"column:is_active;not null"`
	Product       *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
