package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// ShopOrder is the persisted result of a checkout. Status is kept in sync
// with the latest OrderStatusHistory row by the service layer.
type ShopOrder struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string             `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddressID uuid.UUID          `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID          `gorm:"column:billing_address_id;type:uuid;not null"`
	PaymentMethodID   uuid.UUID          `gorm:"column:payment_method_id;type:uuid;not null"`
	ShippingMethodID  uuid.UUID          `gorm:"column:shipping_method_id;type:uuid;not null"`
	DiscountID        *uuid.UUID         `gorm:"column:discount_id;type:uuid"`
	DiscountCode      *string            `gorm:"column:discount_code"`
	Subtotal          decimal.Decimal    `gorm:"column:subtotal;type:numeric(14,2);not null"`
	DiscountAmount    decimal.Decimal    `gorm:"column:discount_amount;type:numeric(14,2);not null"`
	ShippingFee       decimal.Decimal    `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	TotalAmount       decimal.Decimal    `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status            enums.OrderStatus  `gorm:"column:status;not null"`
	Note              *string            `gorm:"column:note"`
	Items             []OrderItem        `gorm:"foreignKey:OrderID"`
	History           []OrderStatusEntry `gorm:"foreignKey:OrderID"`
	ShippingAddress   *Address           `gorm:"foreignKey:ShippingAddressID"`
	BillingAddress    *Address           `gorm:"foreignKey:BillingAddressID"`
	ShippingMethod    *ShippingMethod    `gorm:"foreignKey:ShippingMethodID"`
	PaymentMethod     *PaymentMethod     `gorm:"foreignKey:PaymentMethodID"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the purchased product so later catalog edits do not
// change historical orders.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductItemID uuid.UUID       `gorm:"column:product_item_id;type:uuid;not null"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string          `gorm:"column:product_name;not null"`
	SKU           string          `gorm:"column:sku;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderStatus is a seeded lookup row.
type OrderStatus struct {
	Code      enums.OrderStatus `gorm:"column:code;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	SortOrder int               `gorm:"column:sort_order;not null"`
}

func (OrderStatus) TableName() string { return "order_statuses" }

// OrderStatusEntry is one append-only row of order_status_history.
type OrderStatusEntry struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;not null"`
	Note       *string            `gorm:"column:note"`
	ChangedBy  *uuid.UUID         `gorm:"column:changed_by;type:uuid"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusEntry) TableName() string { return "order_status_history" }
