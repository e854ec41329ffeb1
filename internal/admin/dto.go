package admin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// Dashboard is the GET /admin/dashboard payload.
type Dashboard struct {
	Counts         Counts        `json:"counts"`
	Revenue        Revenue       `json:"revenue"`
	OrdersByStatus []StatusCount `json:"orders_by_status"`
	TopProducts    []TopProduct  `json:"top_products"`
	RecentOrders   []RecentOrder `json:"recent_orders"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

type Counts struct {
	Users          int64 `json:"users"`
	ActiveProducts int64 `json:"active_products"`
	Orders         int64 `json:"orders"`
	PendingOrders  int64 `json:"pending_orders"`
	PendingReviews int64 `json:"pending_reviews"`
}

// Revenue sums order totals, excluding cancelled and returned orders.
type Revenue struct {
	Total     decimal.Decimal `json:"total"`
	Today     decimal.Decimal `json:"today"`
	ThisMonth decimal.Decimal `json:"this_month"`
}

type StatusCount struct {
	Status enums.OrderStatus `json:"status" gorm:"column:status"`
	Count  int64             `json:"count" gorm:"column:count"`
}

type TopProduct struct {
	ProductID    uuid.UUID       `json:"product_id" gorm:"column:product_id"`
	ProductName  string          `json:"product_name" gorm:"column:product_name"`
	QuantitySold int64           `json:"quantity_sold" gorm:"column:quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}

type RecentOrder struct {
	ID          uuid.UUID         `json:"id" gorm:"column:id"`
	OrderNumber string            `json:"order_number" gorm:"column:order_number"`
	UserID      uuid.UUID         `json:"user_id" gorm:"column:user_id"`
	Status      enums.OrderStatus `json:"status" gorm:"column:status"`
	TotalAmount decimal.Decimal   `json:"total_amount" gorm:"column:total_amount"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}
