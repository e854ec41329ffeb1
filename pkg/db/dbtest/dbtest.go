// Package dbtest opens throwaway sqlite databases with the full netstore schema.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/migrate"
)

// New returns an isolated in-memory database. Each call gets its own DSN so
// tests never share rows.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:netstore_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.ApplySQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	sqlDB, err := conn.DB()
	if err == nil {
		// a single connection keeps the shared-cache database alive and serialises writes
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	return conn
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

// SeedUser inserts an active customer.
func SeedUser(t testing.TB, conn *gorm.DB, email string) *models.User {
	t.Helper()
	hash := "hash"
	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: &hash,
		IsActive:     true,
		AuthProvider: enums.AuthProviderLocal,
	}
	mustCreate(t, conn, user)
	return user
}

// SeedCatalog inserts a category, a brand, an active product and one active item.
func SeedCatalog(t testing.TB, conn *gorm.DB, slug string, price string, stock int, weight string) (*models.Product, *models.ProductItem) {
	t.Helper()
	category := &models.Category{Name: "Routers " + slug, Slug: "cat-" + slug, IsActive: true}
	mustCreate(t, conn, category)
	brand := &models.Brand{Name: "Brand " + slug, Slug: "brand-" + slug, IsActive: true}
	mustCreate(t, conn, brand)

	product := &models.Product{
		CategoryID: category.ID,
		BrandID:    &brand.ID,
		Name:       "Product " + slug,
		Slug:       slug,
		IsActive:   true,
	}
	mustCreate(t, conn, product)

	item := &models.ProductItem{
		ProductID:     product.ID,
		SKU:           "SKU-" + slug,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		WeightKg:      decimal.RequireFromString(weight),
		IsActive:      true,
	}
	mustCreate(t, conn, item)
	return product, item
}

// SeedAddress inserts an address owned by userID.
func SeedAddress(t testing.TB, conn *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()
	addr := &models.Address{RecipientName: "Nguyen Van A", Phone: "0900000000", Line1: "1 Le Loi", City: "Ho Chi Minh", Country: "VN"}
	mustCreate(t, conn, addr)
	mustCreate(t, conn, &models.UserAddress{UserID: userID, AddressID: addr.ID})
	return addr
}

// SeedPaymentMethod inserts a cash-on-delivery method owned by userID.
func SeedPaymentMethod(t testing.TB, conn *gorm.DB, userID uuid.UUID) *models.PaymentMethod {
	t.Helper()
	pm := &models.PaymentMethod{UserID: userID, Type: enums.PaymentMethodCOD, IsDefault: true}
	mustCreate(t, conn, pm)
	return pm
}

// SeedShippingMethod inserts an active method priced base + perKg per kilogram.
func SeedShippingMethod(t testing.TB, conn *gorm.DB, base, perKg string) *models.ShippingMethod {
	t.Helper()
	sm := &models.ShippingMethod{
		Name:          "Standard",
		BasePrice:     decimal.RequireFromString(base),
		PricePerKg:    decimal.RequireFromString(perKg),
		EstimatedDays: 3,
		IsActive:      true,
	}
	mustCreate(t, conn, sm)
	return sm
}

// SeedDiscount inserts an active discount valid for the surrounding day.
func SeedDiscount(t testing.TB, conn *gorm.DB, code string, kind enums.DiscountType, value string, maxUses *int) *models.Discount {
	t.Helper()
	now := time.Now().UTC()
	d := &models.Discount{
		Code:           code,
		Type:           kind,
		Value:          decimal.RequireFromString(value),
		MinOrderAmount: decimal.Zero,
		MaxUses:        maxUses,
		StartsAt:       now.Add(-24 * time.Hour),
		EndsAt:         now.Add(24 * time.Hour),
		IsActive:       true,
	}
	mustCreate(t, conn, d)
	return d
}

// SeedOrder inserts an order for userID in the given status with one line per
// item (quantity 1). Addresses, payment and shipping methods are created as needed.
func SeedOrder(t testing.TB, conn *gorm.DB, userID uuid.UUID, number string, status enums.OrderStatus, items ...*models.ProductItem) *models.ShopOrder {
	t.Helper()
	addr := SeedAddress(t, conn, userID)
	pm := SeedPaymentMethod(t, conn, userID)
	sm := SeedShippingMethod(t, conn, "30000", "5000")

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price)
	}
	order := &models.ShopOrder{
		OrderNumber:       number,
		UserID:            userID,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		PaymentMethodID:   pm.ID,
		ShippingMethodID:  sm.ID,
		Subtotal:          subtotal,
		DiscountAmount:    decimal.Zero,
		ShippingFee:       decimal.Zero,
		TotalAmount:       subtotal,
		Status:            status,
	}
	mustCreate(t, conn, order)
	for _, item := range items {
		mustCreate(t, conn, &models.OrderItem{
			OrderID:       order.ID,
			ProductItemID: item.ID,
			ProductID:     item.ProductID,
			ProductName:   "snapshot",
			SKU:           item.SKU,
			UnitPrice:     item.Price,
			Quantity:      1,
			LineTotal:     item.Price,
		})
	}
	mustCreate(t, conn, &models.OrderStatusEntry{OrderID: order.ID, ToStatus: status})
	return order
}
