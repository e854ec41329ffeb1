package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Repository is the persistence surface of the orders service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountOrdersBetween(ctx context.Context, from, to time.Time) (int64, error)
	CreateOrder(ctx context.Context, order *models.ShopOrder) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShopOrder, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.ShopOrder, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.ShopOrder, int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	DecrementStock(ctx context.Context, productItemID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, productItemID uuid.UUID, quantity int) error
	AddressBelongsTo(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
	FindPaymentMethod(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error)
	FindShippingMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
}

type repository struct {
	repo.Base
}

// NewRepository binds the order repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// CountOrdersBetween counts orders created in [from, to).
func (r *repository) CountOrdersBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateOrder(ctx context.Context, order *models.ShopOrder) error {
	return r.DB(ctx).Omit(
		"Items", "History", "ShippingAddress", "BillingAddress", "ShippingMethod", "PaymentMethod",
	).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShopOrder, error) {
	var order models.ShopOrder
	if err := r.DB(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with items, history, addresses and methods.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.ShopOrder, error) {
	var order models.ShopOrder
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("ShippingAddress").
		Preload("BillingAddress").
		Preload("ShippingMethod").
		Preload("PaymentMethod").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List pages orders newest first. Search matches the order number prefix.
func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.ShopOrder, int64, error) {
	query := r.DB(ctx).Model(&models.ShopOrder{}).Preload("Items")
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("UPPER(order_number) LIKE ?", strings.ToUpper(search)+"%")
	}
	var rows []models.ShopOrder
	total, err := repo.Paginate(query, params, "created_at DESC, id DESC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TransitionStatus moves the order from -> to only if it is still in from.
// It reports false when another writer changed the status first.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).
		Model(&models.ShopOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementStock subtracts quantity without a floor check; the caller has
// already compared against the value it read in the same transaction.
func (r *repository) DecrementStock(ctx context.Context, productItemID uuid.UUID, quantity int) error {
	return r.adjustStock(ctx, productItemID, -quantity)
}

func (r *repository) RestoreStock(ctx context.Context, productItemID uuid.UUID, quantity int) error {
	return r.adjustStock(ctx, productItemID, quantity)
}

func (r *repository) adjustStock(ctx context.Context, productItemID uuid.UUID, delta int) error {
	res := r.DB(ctx).
		Model(&models.ProductItem{}).
		Where("id = ?", productItemID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddressBelongsTo(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.UserAddress{}).
		Where("user_id = ? AND address_id = ?", userID, addressID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindPaymentMethod(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).First(&pm).Error; err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *repository) FindShippingMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var sm models.ShippingMethod
	if err := r.DB(ctx).Where("id = ?", id).First(&sm).Error; err != nil {
		return nil, err
	}
	return &sm, nil
}
