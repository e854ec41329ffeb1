package shippingmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

// Fee prices a shipment: base price plus the per-kg rate times total weight.
func Fee(method models.ShippingMethod, totalWeightKg decimal.Decimal) decimal.Decimal {
	return method.BasePrice.Add(method.PricePerKg.Mul(totalWeightKg)).Round(2)
}

// Input is the admin create/update body.
type Input struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Description   *string         `json:"description" validate:"omitempty,max=500"`
	BasePrice     decimal.Decimal `json:"base_price"`
	PricePerKg    decimal.Decimal `json:"price_per_kg"`
	EstimatedDays int             `json:"estimated_days" validate:"min=0,max=90"`
	IsActive      *bool           `json:"is_active"`
}

// DTO is the public view of a shipping method.
type DTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	PricePerKg    decimal.Decimal `json:"price_per_kg"`
	EstimatedDays int             `json:"estimated_days"`
	IsActive      bool            `json:"is_active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func FromModel(m models.ShippingMethod) DTO {
	return DTO{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		BasePrice:     m.BasePrice,
		PricePerKg:    m.PricePerKg,
		EstimatedDays: m.EstimatedDays,
		IsActive:      m.IsActive,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Repository persists shipping methods.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.ShippingMethod, error) {
	var rows []models.ShippingMethod
	query := r.DB(ctx).Order("base_price ASC").Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var row models.ShippingMethod
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, m *models.ShippingMethod) error {
	return r.DB(ctx).Create(m).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.ShippingMethod{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Service exposes the public list and admin CRUD.
type Service interface {
	ListActive(ctx context.Context) ([]DTO, error)
	ListAll(ctx context.Context) ([]DTO, error)
	Create(ctx context.Context, input Input) (*DTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*DTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping method repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]DTO, error) {
	return s.list(ctx, true)
}

func (s *service) ListAll(ctx context.Context) ([]DTO, error) {
	return s.list(ctx, false)
}

func (s *service) list(ctx context.Context, activeOnly bool) ([]DTO, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipping methods")
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input Input) (*DTO, error) {
	if err := validatePricing(input); err != nil {
		return nil, err
	}
	m := &models.ShippingMethod{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		BasePrice:     input.BasePrice,
		PricePerKg:    input.PricePerKg,
		EstimatedDays: input.EstimatedDays,
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shipping method")
	}
	dto := FromModel(*m)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*DTO, error) {
	if err := validatePricing(input); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":           strings.TrimSpace(input.Name),
		"description":    input.Description,
		"base_price":     input.BasePrice,
		"price_per_kg":   input.PricePerKg,
		"estimated_days": input.EstimatedDays,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, notFoundOr(err, "update shipping method")
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load shipping method")
	}
	dto := FromModel(*m)
	return &dto, nil
}

// Deactivate hides the method from checkout. Rows stay for order history.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return notFoundOr(err, "deactivate shipping method")
	}
	return nil
}

func validatePricing(input Input) error {
	if input.BasePrice.IsNegative() || input.PricePerKg.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
