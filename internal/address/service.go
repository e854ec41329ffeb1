package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

// Service manages a user's address book.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]DTO, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*DTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*DTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]DTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// Create adds an address. The first address is always the default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*DTO, error) {
	var created DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		isDefault := input.IsDefault || count == 0
		if isDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		link, err := repo.Create(ctx, userID, input.toModel(), isDefault)
		if err != nil {
			return err
		}
		created = FromModel(*link)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return &created, nil
}

// Update edits an address in place unless orders already reference it, in
// which case a new row replaces it in the address book so order history keeps
// the address it shipped to.
func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*DTO, error) {
	var updated DTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		link, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		isDefault := link.IsDefault || input.IsDefault
		if input.IsDefault && !link.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}

		refs, err := repo.CountOrderReferences(ctx, addressID)
		if err != nil {
			return err
		}
		next := input.toModel()
		if refs > 0 {
			if err := repo.Unlink(ctx, userID, addressID); err != nil {
				return err
			}
			newLink, err := repo.Create(ctx, userID, next, isDefault)
			if err != nil {
				return err
			}
			updated = FromModel(*newLink)
			return nil
		}

		next.ID = addressID
		if err := repo.UpdateAddress(ctx, next); err != nil {
			return err
		}
		if isDefault && !link.IsDefault {
			if err := repo.SetDefault(ctx, userID, addressID); err != nil {
				return err
			}
		}
		reloaded, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		updated = FromModel(*reloaded)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return &updated, nil
}

// Delete removes the address from the book. The row itself is kept while
// orders reference it.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		link, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		if err := repo.Unlink(ctx, userID, addressID); err != nil {
			return err
		}
		refs, err := repo.CountOrderReferences(ctx, addressID)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := repo.DeleteAddress(ctx, addressID); err != nil {
				return err
			}
		}
		if link.IsDefault {
			return repo.PromoteLatest(ctx, userID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}
