package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated client-side so rows can be referenced before commit and so
// the same code path works against sqlite, which lacks gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Role) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Category) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *Brand) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *Product) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *ProductItem) BeforeCreate(*gorm.DB) error      { assignID(&m.ID); return nil }
func (m *ShoppingCart) BeforeCreate(*gorm.DB) error     { assignID(&m.ID); return nil }
func (m *CartItem) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *Address) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *PaymentMethod) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *ShippingMethod) BeforeCreate(*gorm.DB) error   { assignID(&m.ID); return nil }
func (m *Discount) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *ShopOrder) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *OrderItem) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *OrderStatusEntry) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *ProductReview) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error      { assignID(&m.ID); return nil }
func (m *OutboxDLQ) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
