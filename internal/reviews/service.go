package reviews

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
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Service covers customer review submission, the public listing and moderation.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error)
	AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[ReviewDTO], error)
	Approve(ctx context.Context, adminID, reviewID uuid.UUID) (*ReviewDTO, error)
	Delete(ctx context.Context, reviewID uuid.UUID) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, now: now}, nil
}

// Create accepts one review per user and product, and only from a user with
// a delivered or completed order containing it. New reviews wait for approval.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	ok, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	exists, err := s.repo.Exists(ctx, userID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
	}

	orderID, err := s.repo.EligibleOrder(ctx, userID, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only delivered orders can be reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order eligibility")
	}

	review := &models.ProductReview{
		UserID:    userID,
		ProductID: input.ProductID,
		OrderID:   orderID,
		Rating:    input.Rating,
		Title:     trimmed(input.Title),
		Comment:   trimmed(input.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		// lost a race with a concurrent submission
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	dto := FromModel(*review)
	return &dto, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error) {
	rows, total, err := s.repo.ListApprovedForProduct(ctx, productID, params)
	if err != nil {
		return pagination.Page[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return pagination.NewPage(fromModels(rows), total, params), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return pagination.NewPage(fromModels(rows), total, params), nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[ReviewDTO], error) {
	if filters.Rating != nil && (*filters.Rating < 1 || *filters.Rating > 5) {
		return pagination.Page[ReviewDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	rows, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return pagination.Page[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return pagination.NewPage(fromModels(rows), total, params), nil
}

// Approve is idempotent; approving twice refreshes approved_at and approved_by.
func (s *service) Approve(ctx context.Context, adminID, reviewID uuid.UUID) (*ReviewDTO, error) {
	ok, err := s.repo.Approve(ctx, reviewID, adminID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve review")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	dto := FromModel(*review)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, reviewID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, reviewID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
