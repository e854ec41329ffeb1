package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

// Service manages a user's stored payment references.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]DTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*DTO, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*DTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	txRunner txRunner
}

// NewService constructs a payment method service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, txRunner: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]DTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*DTO, error) {
	kind, err := enums.ParsePaymentMethodType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method type")
	}
	method := &models.PaymentMethod{UserID: userID, Type: kind}
	if input.Provider != nil {
		if provider := strings.TrimSpace(*input.Provider); provider != "" {
			method.Provider = &provider
		}
	}
	if input.AccountNumber != nil && strings.TrimSpace(*input.AccountNumber) != "" {
		masked := MaskAccountNumber(*input.AccountNumber)
		method.AccountNumber = &masked
	}
	if kind != enums.PaymentMethodCOD && method.AccountNumber == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account_number is required for this payment type")
	}
	if input.ExpiryDate != nil {
		expiry, err := time.Parse("2006-01", *input.ExpiryDate)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry_date must be YYYY-MM")
		}
		// cards are valid through the last day of the month
		end := expiry.AddDate(0, 1, 0).Add(-time.Second)
		if end.Before(time.Now().UTC()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method has expired")
		}
		method.ExpiryDate = &end
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		method.IsDefault = input.IsDefault || len(existing) == 0
		if method.IsDefault && len(existing) > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, method)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payment method")
	}
	dto := FromModel(*method)
	return &dto, nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*DTO, error) {
	var out DTO
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		method, err := repo.FindForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := repo.SetDefault(ctx, userID, id); err != nil {
			return err
		}
		method.IsDefault = true
		out = FromModel(*method)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default payment method")
	}
	return &out, nil
}

// Delete removes a payment method that no order references.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	method, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment method")
	}
	refs, err := s.repo.CountOrderReferences(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check payment method usage")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment method is used by existing orders")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, userID, id); err != nil {
			return err
		}
		if !method.IsDefault {
			return nil
		}
		remaining, err := repo.ListByUser(ctx, userID)
		if err != nil || len(remaining) == 0 {
			return err
		}
		return repo.SetDefault(ctx, userID, remaining[0].ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment method")
	}
	return nil
}
