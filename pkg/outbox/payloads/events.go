package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// OrderLine is the per-item part of OrderCreatedEvent.
type OrderLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductItemID uuid.UUID       `json:"product_item_id"`
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// OrderCreatedEvent is emitted when a cart is converted into an order.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	UserID           uuid.UUID       `json:"user_id"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DiscountCode     *string         `json:"discount_code,omitempty"`
	ShippingMethodID uuid.UUID       `json:"shipping_method_id"`
	Items            []OrderLine     `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
}

// OrderStatusChangedEvent is emitted for every admin status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	ChangedBy   *uuid.UUID        `json:"changed_by,omitempty"`
	Note        *string           `json:"note,omitempty"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCanceledEvent is emitted when an order is cancelled by the customer or an admin.
type OrderCanceledEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CanceledBy  uuid.UUID       `json:"canceled_by"`
	Reason      string          `json:"reason,omitempty"`
	CanceledAt  time.Time       `json:"canceled_at"`
}
