package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

const (
	topProductsLimit  = 5
	recentOrdersLimit = 5
)

var excludedFromRevenue = []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusReturned}

// Repository runs the read-only dashboard aggregates.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	steps := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&c.Users, r.DB(ctx).Model(&models.User{})},
		{&c.ActiveProducts, r.DB(ctx).Model(&models.Product{}).Where("is_active = ?", true)},
		{&c.Orders, r.DB(ctx).Model(&models.ShopOrder{})},
		{&c.PendingOrders, r.DB(ctx).Model(&models.ShopOrder{}).Where("status = ?", enums.OrderStatusPending)},
		{&c.PendingReviews, r.DB(ctx).Model(&models.ProductReview{}).Where("is_approved = ?", false)},
	}
	for _, step := range steps {
		if err := step.query.Count(step.dest).Error; err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}

// RevenueSince sums totals of orders created at or after since. A zero since
// means all time.
func (r *Repository) RevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	query := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Select("SUM(total_amount)").
		Where("status NOT IN ?", excludedFromRevenue)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

func (r *Repository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks products by units sold on orders that still count as revenue.
func (r *Repository) TopProducts(ctx context.Context) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.DB(ctx).
		Table("order_items oi").
		Select(`oi.product_id AS product_id,
			MAX(oi.product_name) AS product_name,
			SUM(oi.quantity) AS quantity_sold,
			SUM(oi.line_total) AS revenue`).
		Joins("JOIN shop_orders o ON o.id = oi.order_id").
		Where("o.status NOT IN ?", excludedFromRevenue).
		Group("oi.product_id").
		Order("quantity_sold DESC").
		Order("oi.product_id").
		Limit(topProductsLimit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) RecentOrders(ctx context.Context) ([]RecentOrder, error) {
	var rows []RecentOrder
	err := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Select("id, order_number, user_id, status, total_amount, created_at").
		Order("created_at DESC").
		Order("id DESC").
		Limit(recentOrdersLimit).
		Scan(&rows).Error
	return rows, err
}
