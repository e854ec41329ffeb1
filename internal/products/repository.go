package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

const activeItemAggregate = `LEFT JOIN (
	SELECT product_id, MIN(price) AS min_price, SUM(stock_quantity) AS total_stock
	FROM product_items
	WHERE is_active = ?
	GROUP BY product_id
) agg ON agg.product_id = p.id`

const summaryColumns = `p.id, p.category_id, p.brand_id, p.name, p.slug, p.image_url, p.is_active,
	agg.min_price AS min_price, COALESCE(agg.total_stock, 0) AS total_stock, p.created_at, p.updated_at`

// Repository persists products and their items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// List returns one page of product summaries with price and stock aggregated
// over active items. sort must come from pagination.ResolveSort.
func (r *Repository) List(ctx context.Context, params ListParams, sort pagination.Sort) ([]Summary, int64, error) {
	query := r.DB(ctx).Table("products p").Joins(activeItemAggregate, true)

	if !params.IncludeInactive {
		query = query.Where("p.is_active = ?", true)
	}
	if params.CategoryID != nil {
		query = query.Where("p.category_id IN (SELECT id FROM product_categories WHERE id = ? OR parent_id = ?)", *params.CategoryID, *params.CategoryID)
	}
	if params.BrandID != nil {
		query = query.Where("p.brand_id = ?", *params.BrandID)
	}
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(p.name) LIKE ? OR LOWER(COALESCE(p.description, '')) LIKE ?)", like, like)
	}
	if params.MinPrice != nil {
		query = query.Where("agg.min_price >= CAST(? AS NUMERIC)", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("agg.min_price <= CAST(? AS NUMERIC)", *params.MaxPrice)
	}
	if params.InStock {
		query = query.Where("COALESCE(agg.total_stock, 0) > 0")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Summary{}, 0, nil
	}

	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	var records []summaryRecord
	err := query.
		Select(summaryColumns).
		Order(sort.Clause()).
		Order("p.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&records).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toSummary())
	}
	return out, total, nil
}

// FindBySlug loads a product with its category, brand and items. When
// activeOnly is set the product must be active and only active items load.
func (r *Repository) FindBySlug(ctx context.Context, slug string, activeOnly bool) (*models.Product, error) {
	query := r.detailQuery(ctx, activeOnly).Where("slug = ?", slug)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.detailQuery(ctx, false).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) detailQuery(ctx context.Context, activeItemsOnly bool) *gorm.DB {
	query := r.DB(ctx).Preload("Category").Preload("Brand")
	if activeItemsOnly {
		return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("price ASC")
		})
	}
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("price ASC")
	})
}

func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.DB(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SKUsTaken returns which of skus (upper-cased) already exist, ignoring exclude.
func (r *Repository) SKUsTaken(ctx context.Context, skus []string, exclude uuid.UUID) ([]string, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var taken []string
	query := r.DB(ctx).Model(&models.ProductItem{}).Where("UPPER(sku) IN ?", skus)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Pluck("sku", &taken).Error
	return taken, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) BrandExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Brand{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create inserts the product and any items attached to it.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.ProductItem, error) {
	var item models.ProductItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.ProductItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *Repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.ProductItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RatingSummary averages approved reviews for a product.
func (r *Repository) RatingSummary(ctx context.Context, productID uuid.UUID) (float64, int64, error) {
	var row struct {
		Average *float64 `gorm:"column:average"`
		Count   int64    `gorm:"column:count"`
	}
	err := r.DB(ctx).
		Model(&models.ProductReview{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Average == nil {
		return 0, row.Count, nil
	}
	return *row.Average, row.Count, nil
}
