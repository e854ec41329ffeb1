package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a postal address referenced by users and orders.
type Address struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientName string    `gorm:"column:recipient_name;not null"`
	Phone         string    `gorm:"column:phone;not null"`
	Line1         string    `gorm:"column:line1;not null"`
	Line2         *string   `gorm:"column:line2"`
	Ward          *string   `gorm:"column:ward"`
	District      *string   `gorm:"column:district"`
	City          string    `gorm:"column:city;not null"`
	Country       string    `gorm:"column:country;not null"`
	PostalCode    *string   `gorm:"column:postal_code"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserAddress links an address to its owner.
type UserAddress struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	AddressID uuid.UUID `gorm:"column:address_id;type:uuid;primaryKey"`
	IsDefault bool      `gorm:"column:is_default;not null"`
	Address   *Address  `gorm:"foreignKey:AddressID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
