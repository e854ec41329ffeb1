package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// CategoryInput is the admin create/update body for a category.
type CategoryInput struct {
	ParentID    *uuid.UUID `json:"parent_id"`
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        *string    `json:"slug" validate:"omitempty,max=140"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool      `json:"is_active"`
}

// CategoryDTO is a category with its direct children.
type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description,omitempty"`
	IsActive    bool          `json:"is_active"`
	Children    []CategoryDTO `json:"children,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func CategoryFromModel(m models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          m.ID,
		ParentID:    m.ParentID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// BuildTree nests categories under their parents. Rows whose parent is not in
// the slice are returned as roots. Order of rows is preserved.
func BuildTree(rows []models.Category) []CategoryDTO {
	children := make(map[uuid.UUID][]CategoryDTO)
	present := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		present[row.ID] = true
	}
	roots := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		if row.ParentID != nil && present[*row.ParentID] {
			children[*row.ParentID] = append(children[*row.ParentID], CategoryFromModel(row))
		}
	}
	for _, row := range rows {
		if row.ParentID != nil && present[*row.ParentID] {
			continue
		}
		dto := CategoryFromModel(row)
		dto.Children = children[row.ID]
		roots = append(roots, dto)
	}
	return roots
}

// BrandInput is the admin create/update body for a brand.
type BrandInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        *string `json:"slug" validate:"omitempty,max=140"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

type BrandDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func BrandFromModel(m models.Brand) BrandDTO {
	return BrandDTO{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		LogoURL:     m.LogoURL,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
