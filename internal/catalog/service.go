package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
)

// Service covers categories and brands. Public reads go through the cache.
type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error)
	GetCategory(ctx context.Context, id uuid.UUID, includeInactive bool) (*CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBrands(ctx context.Context, includeInactive bool) ([]BrandDTO, error)
	CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*BrandDTO, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo     *Repository
	Cache    CacheStore
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	repo  *Repository
	cache CacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		repo:  params.Repo,
		cache: params.Cache,
		ttl:   ttl,
		logg:  params.Logger,
	}, nil
}

func (s *service) key(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey(parts...)
}

func visibility(includeInactive bool) string {
	if includeInactive {
		return "all"
	}
	return "active"
}

func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error) {
	key := s.key("categories", "tree", visibility(includeInactive))
	tree, err := readThrough(ctx, s.cache, s.logg, s.ttl, key, func() ([]CategoryDTO, error) {
		rows, err := s.repo.ListCategories(ctx, !includeInactive)
		if err != nil {
			return nil, err
		}
		return BuildTree(rows), nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return tree, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID, includeInactive bool) (*CategoryDTO, error) {
	row, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, categoryErr(err, "load category")
	}
	if !row.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	children, err := s.repo.ChildCategories(ctx, id, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subcategories")
	}
	dto := CategoryFromModel(*row)
	for _, child := range children {
		dto.Children = append(dto.Children, CategoryFromModel(child))
	}
	return &dto, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := NormalizeSlug(input.Slug, name)
	if err := s.ensureCategorySlug(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, uuid.Nil, input.ParentID); err != nil {
		return nil, err
	}

	m := &models.Category{
		ParentID:    input.ParentID,
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateCategory(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, slugConflict(slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	s.bustCategories(ctx)
	dto := CategoryFromModel(*m)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := s.repo.FindCategory(ctx, id); err != nil {
		return nil, categoryErr(err, "load category")
	}
	slug := NormalizeSlug(input.Slug, name)
	if err := s.ensureCategorySlug(ctx, slug, id); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, id, input.ParentID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"parent_id":   input.ParentID,
		"name":        name,
		"slug":        slug,
		"description": input.Description,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, slugConflict(slug)
		}
		return nil, categoryErr(err, "update category")
	}
	s.bustCategories(ctx)
	return s.GetCategory(ctx, id, true)
}

// DeleteCategory removes an unused category. Categories that still hold
// products or subcategories must be emptied or deactivated instead.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	products, children, err := s.repo.CategoryUsage(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category usage")
	}
	if products > 0 || children > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category is in use").WithDetails(map[string]any{
			"products":      products,
			"subcategories": children,
		})
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return categoryErr(err, "delete category")
	}
	s.bustCategories(ctx)
	return nil
}

func (s *service) ensureCategorySlug(ctx context.Context, slug string, exclude uuid.UUID) error {
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
	}
	taken, err := s.repo.CategorySlugTaken(ctx, slug, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category slug")
	}
	if taken {
		return slugConflict(slug)
	}
	return nil
}

// checkParent keeps the tree one level deep.
func (s *service) checkParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}
	parent, err := s.repo.FindCategory(ctx, *parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent category")
	}
	if parent.ParentID != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "parent category must be top level")
	}
	if id != uuid.Nil {
		children, err := s.repo.ChildCategories(ctx, id, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subcategories")
		}
		if len(children) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "category with subcategories cannot be nested")
		}
	}
	return nil
}

func (s *service) bustCategories(ctx context.Context) {
	if s.cache == nil {
		return
	}
	invalidate(ctx, s.cache, s.logg,
		s.key("categories", "tree", visibility(false)),
		s.key("categories", "tree", visibility(true)),
	)
}

func (s *service) ListBrands(ctx context.Context, includeInactive bool) ([]BrandDTO, error) {
	key := s.key("brands", visibility(includeInactive))
	brands, err := readThrough(ctx, s.cache, s.logg, s.ttl, key, func() ([]BrandDTO, error) {
		rows, err := s.repo.ListBrands(ctx, !includeInactive)
		if err != nil {
			return nil, err
		}
		out := make([]BrandDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, BrandFromModel(row))
		}
		return out, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	return brands, nil
}

func (s *service) CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := NormalizeSlug(input.Slug, name)
	if err := s.ensureBrandSlug(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}
	m := &models.Brand{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateBrand(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, slugConflict(slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create brand")
	}
	s.bustBrands(ctx)
	dto := BrandFromModel(*m)
	return &dto, nil
}

func (s *service) UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*BrandDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := NormalizeSlug(input.Slug, name)
	if err := s.ensureBrandSlug(ctx, slug, id); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":        name,
		"slug":        slug,
		"description": input.Description,
		"logo_url":    input.LogoURL,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateBrand(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, slugConflict(slug)
		}
		return nil, brandErr(err, "update brand")
	}
	s.bustBrands(ctx)
	row, err := s.repo.FindBrand(ctx, id)
	if err != nil {
		return nil, brandErr(err, "load brand")
	}
	dto := BrandFromModel(*row)
	return &dto, nil
}

func (s *service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.BrandProductCount(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count brand products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "brand has products").WithDetails(map[string]any{"products": count})
	}
	if err := s.repo.DeleteBrand(ctx, id); err != nil {
		return brandErr(err, "delete brand")
	}
	s.bustBrands(ctx)
	return nil
}

func (s *service) ensureBrandSlug(ctx context.Context, slug string, exclude uuid.UUID) error {
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
	}
	taken, err := s.repo.BrandSlugTaken(ctx, slug, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check brand slug")
	}
	if taken {
		return slugConflict(slug)
	}
	return nil
}

func (s *service) bustBrands(ctx context.Context) {
	if s.cache == nil {
		return
	}
	invalidate(ctx, s.cache, s.logg, s.key("brands", visibility(false)), s.key("brands", visibility(true)))
}

func slugConflict(slug string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "slug already exists").WithDetails(map[string]any{"slug": slug})
}

func categoryErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func brandErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
