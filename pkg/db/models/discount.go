package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// Discount is a promotional code. MaxUses nil means unlimited.
type Discount struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Description       *string            `gorm:"column:description"`
	Type              enums.DiscountType `gorm:"column:type;not null"`
	Value             decimal.Decimal    `gorm:"column:value;type:numeric(14,2);not null"`
	MinOrderAmount    decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(14,2);not null"`
	MaxDiscountAmount *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(14,2)"`
	MaxUses           *int               `gorm:"column:max_uses"`
	UsedCount         int                `gorm:"column:used_count;not null"`
	StartsAt          time.Time          `gorm:"column:starts_at;not null"`
	EndsAt            time.Time          `gorm:"column:ends_at;not null"`
	IsActive          bool               `gorm:"column:is_active;not null"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
