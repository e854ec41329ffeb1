package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// PaymentMethod is a stored payment reference owned by a user. No card data
// beyond the masked account number is persisted.
type PaymentMethod struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type          enums.PaymentMethodType `gorm:"column:type;not null"`
	Provider      *string                 `gorm:"column:provider"`
	AccountNumber *string                 `gorm:"column:account_number"`
	ExpiryDate    *time.Time              `gorm:"column:expiry_date"`
	IsDefault     bool                    `gorm:"column:is_default;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingMethod prices delivery as base + per-kg rate.
type ShippingMethod struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Description   *string         `gorm:"column:description"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:numeric(14,2);not null"`
	PricePerKg    decimal.Decimal `gorm:"column:price_per_kg;type:numeric(14,2);not null"`
	EstimatedDays int             `gorm:"column:estimated_days;not null"`
	IsActive      bool            `gorm:"column:is_active;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
