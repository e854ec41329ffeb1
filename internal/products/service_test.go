package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn))
	require.NoError(t, err)
	return svc, conn
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestListDerivesPriceAndStockFromActiveItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	product, item := dbtest.SeedCatalog(t, conn, "rb4011", "5200000", 4, "1.1")
	require.NoError(t, conn.Create(&models.ProductItem{
		ProductID: product.ID, SKU: "SKU-rb4011-rm", Price: dec("4900000"), StockQuantity: 6, WeightKg: dec("1.3"), IsActive: true,
	}).Error)
	require.NoError(t, conn.Create(&models.ProductItem{
		ProductID: product.ID, SKU: "SKU-rb4011-old", Price: dec("100000"), StockQuantity: 50, WeightKg: dec("1.0"), IsActive: false,
	}).Error)

	page, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	got := page.Data[0]
	require.NotNil(t, got.MinPrice)
	assert.True(t, dec("4900000").Equal(*got.MinPrice), got.MinPrice.String())
	assert.Equal(t, int64(10), got.TotalStock)
	assert.Equal(t, item.ProductID, got.ID)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestListSortsFiltersAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	cheap, _ := dbtest.SeedCatalog(t, conn, "hap-lite", "590000", 10, "0.2")
	mid, _ := dbtest.SeedCatalog(t, conn, "hap-ac2", "1650000", 0, "0.3")
	_, _ = dbtest.SeedCatalog(t, conn, "ccr2004", "12500000", 2, "2.0")

	page, err := svc.List(ctx, ListParams{SortBy: "price", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, cheap.ID, page.Data[0].ID)
	assert.Equal(t, mid.ID, page.Data[1].ID)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	second, err := svc.List(ctx, ListParams{SortBy: "price", SortOrder: "asc", Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.Equal(t, "ccr2004", second.Data[0].Slug)

	inStock, err := svc.List(ctx, ListParams{InStock: true})
	require.NoError(t, err)
	assert.Len(t, inStock.Data, 2)

	byCategory, err := svc.List(ctx, ListParams{CategoryID: &mid.CategoryID})
	require.NoError(t, err)
	require.Len(t, byCategory.Data, 1)
	assert.Equal(t, mid.ID, byCategory.Data[0].ID)

	byBrand, err := svc.List(ctx, ListParams{BrandID: cheap.BrandID})
	require.NoError(t, err)
	require.Len(t, byBrand.Data, 1)

	search, err := svc.List(ctx, ListParams{Search: "HAP"})
	require.NoError(t, err)
	assert.Len(t, search.Data, 2)

	maxPrice := dec("2000000")
	priced, err := svc.List(ctx, ListParams{MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Len(t, priced.Data, 2)
}

func TestListRejectsUnknownSortField(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListParams{SortBy: "stock_quantity; DROP TABLE products"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListParams{SortBy: "name", SortOrder: "sideways"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListHidesInactiveUnlessRequested(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	product, _ := dbtest.SeedCatalog(t, conn, "legacy", "100000", 1, "0.1")
	require.NoError(t, svc.Deactivate(ctx, product.ID))

	public, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, public.Data)

	admin, err := svc.List(ctx, ListParams{IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, admin.Data, 1)
	assert.False(t, admin.Data[0].IsActive)

	_, err = svc.GetBySlug(ctx, "legacy")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	detail, err := svc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)
}

func TestGetBySlugHidesInactiveItemsAndIncludesRating(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	product, item := dbtest.SeedCatalog(t, conn, "u6-pro", "3900000", 5, "0.6")
	inactiveItem := &models.ProductItem{ProductID: product.ID, SKU: "SKU-u6-old", Price: dec("1000"), StockQuantity: 1, WeightKg: dec("0.6"), IsActive: false}
	require.NoError(t, conn.Create(inactiveItem).Error)

	user := dbtest.SeedUser(t, conn, "rater@example.com")
	order := dbtest.SeedOrder(t, conn, user.ID, "ORD202601010001", enums.OrderStatusDelivered, item)
	require.NoError(t, conn.Create(&models.ProductReview{UserID: user.ID, ProductID: product.ID, OrderID: order.ID, Rating: 4, IsApproved: true}).Error)
	other := dbtest.SeedUser(t, conn, "pending@example.com")
	require.NoError(t, conn.Create(&models.ProductReview{UserID: other.ID, ProductID: product.ID, OrderID: order.ID, Rating: 1}).Error)

	detail, err := svc.GetBySlug(ctx, "U6-Pro")
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, item.ID, detail.Items[0].ID)
	assert.True(t, dec("3900000").Equal(*detail.MinPrice))
	assert.Equal(t, int64(5), detail.TotalStock)
	assert.Equal(t, int64(1), detail.ReviewCount)
	assert.InDelta(t, 4.0, detail.AverageRating, 0.001)
	require.NotNil(t, detail.Brand)
	assert.Equal(t, "brand-u6-pro", detail.Brand.Slug)
}

func TestCreateProductWithItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := &models.Category{Name: "Switch", Slug: "switch", IsActive: true}
	require.NoError(t, conn.Create(category).Error)

	detail, err := svc.Create(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "CRS326 24 cổng",
		Items: []ItemInput{
			{SKU: "crs326-24g", Price: dec("4200000"), StockQuantity: 3, WeightKg: dec("1.4")},
			{SKU: "crs326-24s", Price: dec("6100000"), StockQuantity: 1, WeightKg: dec("1.5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "crs326-24-cong", detail.Slug)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "CRS326-24G", detail.Items[0].SKU)
	assert.True(t, detail.IsActive)

	_, err = svc.Create(ctx, ProductInput{CategoryID: category.ID, Name: "CRS326 24 Cong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Another switch",
		Items:      []ItemInput{{SKU: "CRS326-24G", Price: dec("1"), WeightKg: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Dup items",
		Items: []ItemInput{
			{SKU: "X1", Price: dec("1"), WeightKg: dec("1")},
			{SKU: "x1", Price: dec("1"), WeightKg: dec("1")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, ProductInput{CategoryID: uuid.New(), Name: "No category"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Free lunch",
		Items:      []ItemInput{{SKU: "FREE", Price: decimal.Zero, WeightKg: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProductAndItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	product, item := dbtest.SeedCatalog(t, conn, "hex-s", "1500000", 2, "0.4")
	_, _ = dbtest.SeedCatalog(t, conn, "taken", "1", 1, "0.1")

	updated, err := svc.Update(ctx, product.ID, ProductInput{CategoryID: product.CategoryID, BrandID: product.BrandID, Name: "hEX S 2025"})
	require.NoError(t, err)
	assert.Equal(t, "hex-s-2025", updated.Slug)

	taken := "taken"
	_, err = svc.Update(ctx, product.ID, ProductInput{CategoryID: product.CategoryID, Name: "x", Slug: &taken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Update(ctx, uuid.New(), ProductInput{CategoryID: product.CategoryID, Name: "ghost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	added, err := svc.AddItem(ctx, product.ID, ItemInput{SKU: "hex-s-poe", Price: dec("1800000"), StockQuantity: 7, WeightKg: dec("0.45")})
	require.NoError(t, err)
	assert.Equal(t, "HEX-S-POE", added.SKU)

	_, err = svc.AddItem(ctx, product.ID, ItemInput{SKU: "SKU-taken", Price: dec("1"), WeightKg: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	off := false
	changed, err := svc.UpdateItem(ctx, item.ID, ItemInput{SKU: item.SKU, Price: dec("1450000"), StockQuantity: 9, WeightKg: dec("0.4"), IsActive: &off})
	require.NoError(t, err)
	assert.False(t, changed.IsActive)
	assert.Equal(t, 9, changed.StockQuantity)

	_, err = svc.UpdateItem(ctx, item.ID, ItemInput{SKU: "HEX-S-POE", Price: dec("1"), WeightKg: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.UpdateItem(ctx, uuid.New(), ItemInput{SKU: "NEW", Price: dec("1"), WeightKg: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	detail, err := svc.GetBySlug(ctx, "hex-s-2025")
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, added.ID, detail.Items[0].ID)
}
