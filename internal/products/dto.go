package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// ListParams carries the public and admin list query.
type ListParams struct {
	Page            int
	Limit           int
	SortBy          string
	SortOrder       string
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	InStock         bool
	IncludeInactive bool
}

// Summary is one row of the product list. Price is the cheapest active item
// and Stock the sum over active items; both are absent when no item is active.
type Summary struct {
	ID         uuid.UUID        `json:"id"`
	CategoryID uuid.UUID        `json:"category_id"`
	BrandID    *uuid.UUID       `json:"brand_id,omitempty"`
	Name       string           `json:"name"`
	Slug       string           `json:"slug"`
	ImageURL   *string          `json:"image_url,omitempty"`
	IsActive   bool             `json:"is_active"`
	MinPrice   *decimal.Decimal `json:"min_price"`
	TotalStock int64            `json:"total_stock"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type summaryRecord struct {
	ID         uuid.UUID           `gorm:"column:id"`
	CategoryID uuid.UUID           `gorm:"column:category_id"`
	BrandID    *uuid.UUID          `gorm:"column:brand_id"`
	Name       string              `gorm:"column:name"`
	Slug       string              `gorm:"column:slug"`
	ImageURL   *string             `gorm:"column:image_url"`
	IsActive   bool                `gorm:"column:is_active"`
	MinPrice   decimal.NullDecimal `gorm:"column:min_price"`
	TotalStock int64               `gorm:"column:total_stock"`
	CreatedAt  time.Time           `gorm:"column:created_at"`
	UpdatedAt  time.Time           `gorm:"column:updated_at"`
}

func (r summaryRecord) toSummary() Summary {
	s := Summary{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		BrandID:    r.BrandID,
		Name:       r.Name,
		Slug:       r.Slug,
		ImageURL:   r.ImageURL,
		IsActive:   r.IsActive,
		TotalStock: r.TotalStock,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.MinPrice.Valid {
		price := r.MinPrice.Decimal.Round(2)
		s.MinPrice = &price
	}
	return s
}

type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ItemDTO is the public view of a product item.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          *string         `json:"name,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
	IsActive      bool            `json:"is_active"`
}

func ItemFromModel(m models.ProductItem) ItemDTO {
	return ItemDTO{
		ID:            m.ID,
		SKU:           m.SKU,
		Name:          m.Name,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		WeightKg:      m.WeightKg,
		IsActive:      m.IsActive,
	}
}

// Detail is the product page payload.
type Detail struct {
	Summary
	Description   *string   `json:"description,omitempty"`
	Category      *Ref      `json:"category,omitempty"`
	Brand         *Ref      `json:"brand,omitempty"`
	Items         []ItemDTO `json:"items"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int64     `json:"review_count"`
}

// DetailFromModel derives price and stock from the loaded items, skipping
// inactive ones.
func DetailFromModel(m models.Product) Detail {
	d := Detail{
		Summary: Summary{
			ID:         m.ID,
			CategoryID: m.CategoryID,
			BrandID:    m.BrandID,
			Name:       m.Name,
			Slug:       m.Slug,
			ImageURL:   m.ImageURL,
			IsActive:   m.IsActive,
			CreatedAt:  m.CreatedAt,
			UpdatedAt:  m.UpdatedAt,
		},
		Description: m.Description,
		Items:       make([]ItemDTO, 0, len(m.Items)),
	}
	if m.Category != nil {
		d.Category = &Ref{ID: m.Category.ID, Name: m.Category.Name, Slug: m.Category.Slug}
	}
	if m.Brand != nil {
		d.Brand = &Ref{ID: m.Brand.ID, Name: m.Brand.Name, Slug: m.Brand.Slug}
	}
	for _, item := range m.Items {
		d.Items = append(d.Items, ItemFromModel(item))
		if !item.IsActive {
			continue
		}
		d.TotalStock += int64(item.StockQuantity)
		if d.MinPrice == nil || item.Price.LessThan(*d.MinPrice) {
			price := item.Price
			d.MinPrice = &price
		}
	}
	return d
}

// ProductInput is the admin create/update body. Items are only read on create.
type ProductInput struct {
	CategoryID  uuid.UUID   `json:"category_id" validate:"required"`
	BrandID     *uuid.UUID  `json:"brand_id"`
	Name        string      `json:"name" validate:"required,max=200"`
	Slug        *string     `json:"slug" validate:"omitempty,max=220"`
	Description *string     `json:"description"`
	ImageURL    *string     `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool       `json:"is_active"`
	Items       []ItemInput `json:"items" validate:"omitempty,dive"`
}

// ItemInput is the admin body for a product item.
type ItemInput struct {
	SKU           string          `json:"sku" validate:"required,max=64,sku"`
	Name          *string         `json:"name" validate:"omitempty,max=200"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
	IsActive      *bool           `json:"is_active"`
}
