package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/catalog"
	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// SortColumns whitelists the public sort_by values.
var SortColumns = map[string]string{
	"created_at": "p.created_at",
	"name":       "p.name",
	"price":      "agg.min_price",
	"updated_at": "p.updated_at",
}

var defaultSort = pagination.Sort{Column: "p.created_at", Direction: "DESC"}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the product catalog surface used by the public and admin controllers.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[Summary], error)
	GetBySlug(ctx context.Context, slug string) (*Detail, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	Create(ctx context.Context, input ProductInput) (*Detail, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Detail, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, productID uuid.UUID, input ItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, input ItemInput) (*ItemDTO, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[Summary], error) {
	sort, err := pagination.ResolveSort(params.SortBy, params.SortOrder, SortColumns, defaultSort)
	if err != nil {
		return pagination.Page[Summary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]any{"allowed_sort_by": []string{"created_at", "name", "price", "updated_at"}})
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return pagination.Page[Summary]{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}

	rows, total, err := s.repo.List(ctx, params, sort)
	if err != nil {
		return pagination.Page[Summary]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return pagination.NewPage(rows, total, pagination.Params{Page: params.Page, Limit: params.Limit}), nil
}

// GetBySlug is the public product page: inactive products are not found and
// inactive items are hidden.
func (s *service) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug, true)
	if err != nil {
		return nil, productErr(err, "load product")
	}
	return s.detail(ctx, *product)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, productErr(err, "load product")
	}
	return s.detail(ctx, *product)
}

func (s *service) detail(ctx context.Context, product models.Product) (*Detail, error) {
	d := DetailFromModel(product)
	avg, count, err := s.repo.RatingSummary(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rating summary")
	}
	d.AverageRating = avg
	d.ReviewCount = count
	return &d, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*Detail, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := catalog.NormalizeSlug(input.Slug, name)
	if err := s.ensureSlug(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.ensureRefs(ctx, input.CategoryID, input.BrandID); err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(input.Items))
	seen := make(map[string]bool, len(input.Items))
	items := make([]models.ProductItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := buildItem(in)
		if err != nil {
			return nil, err
		}
		if seen[item.SKU] {
			return nil, skuConflict(item.SKU)
		}
		seen[item.SKU] = true
		skus = append(skus, item.SKU)
		items = append(items, item)
	}
	if err := s.ensureSKUs(ctx, skus, uuid.Nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		BrandID:     input.BrandID,
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		IsActive:    input.IsActive == nil || *input.IsActive,
		Items:       items,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, product)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug or sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return s.GetByID(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Detail, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, productErr(err, "load product")
	}
	slug := catalog.NormalizeSlug(input.Slug, name)
	if err := s.ensureSlug(ctx, slug, id); err != nil {
		return nil, err
	}
	if err := s.ensureRefs(ctx, input.CategoryID, input.BrandID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"category_id": input.CategoryID,
		"brand_id":    input.BrandID,
		"name":        name,
		"slug":        slug,
		"description": input.Description,
		"image_url":   input.ImageURL,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, slugConflict(slug)
		}
		return nil, productErr(err, "update product")
	}
	return s.GetByID(ctx, id)
}

// Deactivate hides the product from the storefront. Items, orders and reviews
// keep pointing at it.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return productErr(err, "deactivate product")
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, productID uuid.UUID, input ItemInput) (*ItemDTO, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, productErr(err, "load product")
	}
	item, err := buildItem(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUs(ctx, []string{item.SKU}, uuid.Nil); err != nil {
		return nil, err
	}
	item.ProductID = productID
	if err := s.repo.CreateItem(ctx, &item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(item.SKU)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product item")
	}
	dto := ItemFromModel(item)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, itemID uuid.UUID, input ItemInput) (*ItemDTO, error) {
	item, err := buildItem(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUs(ctx, []string{item.SKU}, itemID); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"sku":            item.SKU,
		"name":           item.Name,
		"price":          item.Price,
		"stock_quantity": item.StockQuantity,
		"weight_kg":      item.WeightKg,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateItem(ctx, itemID, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(item.SKU)
		}
		return nil, itemErr(err, "update product item")
	}
	updated, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, itemErr(err, "load product item")
	}
	dto := ItemFromModel(*updated)
	return &dto, nil
}

func buildItem(in ItemInput) (models.ProductItem, error) {
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	if sku == "" {
		return models.ProductItem{}, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if !in.Price.IsPositive() {
		return models.ProductItem{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive").WithDetails(map[string]any{"sku": sku})
	}
	if in.StockQuantity < 0 {
		return models.ProductItem{}, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative").WithDetails(map[string]any{"sku": sku})
	}
	if in.WeightKg.IsNegative() {
		return models.ProductItem{}, pkgerrors.New(pkgerrors.CodeValidation, "weight must not be negative").WithDetails(map[string]any{"sku": sku})
	}
	return models.ProductItem{
		SKU:           sku,
		Name:          in.Name,
		Price:         in.Price.Round(2),
		StockQuantity: in.StockQuantity,
		WeightKg:      in.WeightKg.Round(3),
		IsActive:      in.IsActive == nil || *in.IsActive,
	}, nil
}

func (s *service) ensureSlug(ctx context.Context, slug string, exclude uuid.UUID) error {
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
	}
	taken, err := s.repo.SlugTaken(ctx, slug, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product slug")
	}
	if taken {
		return slugConflict(slug)
	}
	return nil
}

func (s *service) ensureSKUs(ctx context.Context, skus []string, exclude uuid.UUID) error {
	taken, err := s.repo.SKUsTaken(ctx, skus, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
	}
	if len(taken) > 0 {
		return skuConflict(taken...)
	}
	return nil
}

func (s *service) ensureRefs(ctx context.Context, categoryID uuid.UUID, brandID *uuid.UUID) error {
	if categoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	ok, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
	}
	if brandID == nil {
		return nil
	}
	ok, err = s.repo.BrandExists(ctx, *brandID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check brand")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand not found")
	}
	return nil
}

func slugConflict(slug string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "slug already exists").WithDetails(map[string]any{"slug": slug})
}

func skuConflict(skus ...string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").WithDetails(map[string]any{"skus": skus})
}

func productErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func itemErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
