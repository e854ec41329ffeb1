package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 999

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, lineID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*cart)
	return &dto, nil
}

// AddItem merges into an existing line for the same product item, so the
// stock check applies to the summed quantity.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.ProductItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_item_id is required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		item, err := s.loadItem(ctx, repo, input.ProductItemID)
		if err != nil {
			return err
		}

		existing, err := repo.FindLine(ctx, cart.ID, item.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		quantity := input.Quantity
		if existing != nil {
			quantity += existing.Quantity
		}
		if err := validateQuantity(quantity); err != nil {
			return err
		}
		if err := checkAvailability(item, quantity); err != nil {
			return err
		}

		if existing != nil {
			if err := repo.UpdateLineQuantity(ctx, existing.ID, quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		} else {
			line := &models.CartItem{CartID: cart.ID, ProductItemID: item.ID, Quantity: quantity}
			if err := repo.CreateLine(ctx, line); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "cart line was added concurrently, retry")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}
		}
		return touch(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UpdateItem sets the line quantity after re-checking stock and active flags.
func (s *service) UpdateItem(ctx context.Context, userID, lineID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		line, err := repo.FindLineByID(ctx, cart.ID, lineID)
		if err != nil {
			return lineErr(err)
		}
		item, err := s.loadItem(ctx, repo, line.ProductItemID)
		if err != nil {
			return err
		}
		if err := checkAvailability(item, input.Quantity); err != nil {
			return err
		}
		if err := repo.UpdateLineQuantity(ctx, line.ID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return touch(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteLine(ctx, cart.ID, lineID); err != nil {
		return nil, lineErr(err)
	}
	if err := touch(ctx, s.repo, cart.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.ensureCart(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return touch(ctx, s.repo, cart.ID)
}

// ensureCart loads the user's cart or creates it. A concurrent first access
// loses the unique race on user_id and re-reads the winner's row.
func (s *service) ensureCart(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.ShoppingCart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	cart = &models.ShoppingCart{UserID: userID}
	if err := repo.Create(ctx, cart); err != nil {
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
		}
		existing, findErr := repo.FindByUser(ctx, userID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "load cart")
		}
		return existing, nil
	}
	return cart, nil
}

func (s *service) loadItem(ctx context.Context, repo CartRepository, id uuid.UUID) (*models.ProductItem, error) {
	item, err := repo.LoadProductItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product item")
	}
	return item, nil
}

func checkAvailability(item *models.ProductItem, quantity int) error {
	switch LineStatus(item, quantity) {
	case enums.CartItemStatusOK:
		return nil
	case enums.CartItemStatusNotAvailable:
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"product_item_id": item.ID})
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{
				"product_item_id": item.ID,
				"sku":             item.SKU,
				"requested":       quantity,
				"available":       item.StockQuantity,
			})
	}
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", MaxLineQuantity)
	}
	return nil
}

func touch(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if err := repo.Touch(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
	}
	return nil
}

func lineErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
}
