package paymentmethods

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// CreateInput is the body of POST /users/me/payment-methods.
type CreateInput struct {
	Type          string  `json:"type" validate:"required,oneof=cod bank_transfer card e_wallet"`
	Provider      *string `json:"provider" validate:"omitempty,max=80"`
	AccountNumber *string `json:"account_number" validate:"omitempty,min=4,max=34"`
	// ExpiryDate is "YYYY-MM" for cards.
	ExpiryDate *string `json:"expiry_date" validate:"omitempty,len=7"`
	IsDefault  bool    `json:"is_default"`
}

// DTO is the stored payment reference with the account number masked.
type DTO struct {
	ID            uuid.UUID               `json:"id"`
	Type          enums.PaymentMethodType `json:"type"`
	Provider      *string                 `json:"provider,omitempty"`
	AccountNumber *string                 `json:"account_number,omitempty"`
	ExpiryDate    *time.Time              `json:"expiry_date,omitempty"`
	IsDefault     bool                    `json:"is_default"`
	CreatedAt     time.Time               `json:"created_at"`
}

func FromModel(m models.PaymentMethod) DTO {
	return DTO{
		ID:            m.ID,
		Type:          m.Type,
		Provider:      m.Provider,
		AccountNumber: m.AccountNumber,
		ExpiryDate:    m.ExpiryDate,
		IsDefault:     m.IsDefault,
		CreatedAt:     m.CreatedAt,
	}
}

// MaskAccountNumber keeps the last four characters.
func MaskAccountNumber(raw string) string {
	compact := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(compact) <= 4 {
		return compact
	}
	return strings.Repeat("*", len(compact)-4) + compact[len(compact)-4:]
}
