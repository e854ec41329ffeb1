package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductReview is unique per (user, product) and hidden until approved.
type ProductReview struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	Rating     int        `gorm:"column:rating;not null"`
	Title      *string    `gorm:"column:title"`
	Comment    *string    `gorm:"column:comment"`
	IsApproved bool       `gorm:"column:is_approved;not null"`
	ApprovedAt *time.Time `gorm:"column:approved_at"`
	ApprovedBy *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	User       *User      `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
