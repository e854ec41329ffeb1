package discounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,39}$`)

// ValidateInput is the public POST /discounts/validate body.
type ValidateInput struct {
	Code     string          `json:"code" validate:"required,max=40"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ValidateResult previews what the code would take off the subtotal.
type ValidateResult struct {
	Code           string             `json:"code"`
	Type           enums.DiscountType `json:"type"`
	Value          decimal.Decimal    `json:"value"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	FinalSubtotal  decimal.Decimal    `json:"final_subtotal"`
}

// Input is the admin create/update body.
type Input struct {
	Code              string             `json:"code" validate:"required,max=40"`
	Description       *string            `json:"description" validate:"omitempty,max=500"`
	Type              enums.DiscountType `json:"type" validate:"required,oneof=percentage fixed"`
	Value             decimal.Decimal    `json:"value"`
	MinOrderAmount    decimal.Decimal    `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount"`
	MaxUses           *int               `json:"max_uses" validate:"omitempty,min=1"`
	StartsAt          time.Time          `json:"starts_at" validate:"required"`
	EndsAt            time.Time          `json:"ends_at" validate:"required"`
	IsActive          *bool              `json:"is_active"`
}

type DTO struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	Description       *string            `json:"description,omitempty"`
	Type              enums.DiscountType `json:"type"`
	Value             decimal.Decimal    `json:"value"`
	MinOrderAmount    decimal.Decimal    `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	MaxUses           *int               `json:"max_uses,omitempty"`
	UsedCount         int                `json:"used_count"`
	StartsAt          time.Time          `json:"starts_at"`
	EndsAt            time.Time          `json:"ends_at"`
	IsActive          bool               `json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func FromModel(m models.Discount) DTO {
	return DTO{
		ID:                m.ID,
		Code:              m.Code,
		Description:       m.Description,
		Type:              m.Type,
		Value:             m.Value,
		MinOrderAmount:    m.MinOrderAmount,
		MaxDiscountAmount: m.MaxDiscountAmount,
		MaxUses:           m.MaxUses,
		UsedCount:         m.UsedCount,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// Service covers public code validation and admin CRUD.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[DTO], error)
	Get(ctx context.Context, id uuid.UUID) (*DTO, error)
	Create(ctx context.Context, input Input) (*DTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*DTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	d, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load discount")
	}
	if err := CheckUsable(*d, input.Subtotal, s.now()); err != nil {
		return nil, err
	}
	amount := Amount(*d, input.Subtotal)
	return &ValidateResult{
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		DiscountAmount: amount,
		Subtotal:       input.Subtotal,
		FinalSubtotal:  input.Subtotal.Sub(amount),
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[DTO], error) {
	rows, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return pagination.Page[DTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discounts")
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return pagination.NewPage(out, total, params), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, discountErr(err, "load discount")
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*DTO, error) {
	code, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	m := &models.Discount{
		Code:              code,
		Description:       input.Description,
		Type:              input.Type,
		Value:             input.Value,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MaxUses:           input.MaxUses,
		StartsAt:          input.StartsAt.UTC(),
		EndsAt:            input.EndsAt.UTC(),
		IsActive:          input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeConflict(code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create discount")
	}
	dto := FromModel(*m)
	return &dto, nil
}

// Update rewrites the definition. used_count is never touched here; lowering
// max_uses below it simply exhausts the code.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*DTO, error) {
	code, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"code":                code,
		"description":         input.Description,
		"type":                input.Type,
		"value":               input.Value,
		"min_order_amount":    input.MinOrderAmount,
		"max_discount_amount": input.MaxDiscountAmount,
		"max_uses":            input.MaxUses,
		"starts_at":           input.StartsAt.UTC(),
		"ends_at":             input.EndsAt.UTC(),
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeConflict(code)
		}
		return nil, discountErr(err, "update discount")
	}
	return s.Get(ctx, id)
}

// Delete removes unused codes. Codes already applied to orders are
// deactivated instead so order history keeps its reference.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountOrderReferences(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count discount usage")
	}
	if refs > 0 {
		if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
			return discountErr(err, "deactivate discount")
		}
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return discountErr(err, "delete discount")
	}
	return nil
}

func normalizeInput(input Input) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !codePattern.MatchString(code) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "code must be 3-40 letters, digits, '-' or '_'")
	}
	if !input.Type.IsValid() {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "invalid discount type %q", input.Type)
	}
	if !input.Value.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value.GreaterThan(hundred) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "percentage must not exceed 100")
	}
	if input.MinOrderAmount.IsNegative() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "min_order_amount must not be negative")
	}
	if input.MaxDiscountAmount != nil && !input.MaxDiscountAmount.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "max_discount_amount must be positive")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}
	return code, nil
}

func codeConflict(code string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists").WithDetails(map[string]any{"code": code})
}

func discountErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
