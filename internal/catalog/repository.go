package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// Repository persists categories and brands.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var rows []models.Category
	query := r.DB(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ChildCategories(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	var rows []models.Category
	query := r.DB(ctx).Where("parent_id = ?", parentID).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) CategorySlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.slugTaken(ctx, &models.Category{}, slug, exclude)
}

func (r *Repository) CreateCategory(ctx context.Context, m *models.Category) error {
	return r.DB(ctx).Create(m).Error
}

func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.update(ctx, &models.Category{}, id, updates)
}

// CategoryUsage counts products and child categories that reference id.
func (r *Repository) CategoryUsage(ctx context.Context, id uuid.UUID) (products int64, children int64, err error) {
	if err = r.DB(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return 0, 0, err
	}
	return products, children, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, &models.Category{}, id)
}

func (r *Repository) ListBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error) {
	var rows []models.Brand
	query := r.DB(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) FindBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var row models.Brand
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) BrandSlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.slugTaken(ctx, &models.Brand{}, slug, exclude)
}

func (r *Repository) CreateBrand(ctx context.Context, m *models.Brand) error {
	return r.DB(ctx).Create(m).Error
}

func (r *Repository) UpdateBrand(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.update(ctx, &models.Brand{}, id, updates)
}

func (r *Repository) BrandProductCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("brand_id = ?", id).Count(&count).Error
	return count, err
}

func (r *Repository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, &models.Brand{}, id)
}

func (r *Repository) slugTaken(ctx context.Context, model any, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.DB(ctx).Model(model).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) update(ctx context.Context, model any, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) delete(ctx context.Context, model any, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
