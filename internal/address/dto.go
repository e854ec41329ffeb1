package address

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

const defaultCountry = "VN"

// Input is the create/update body for a user address.
type Input struct {
	RecipientName string  `json:"recipient_name" validate:"required,max=120"`
	Phone         string  `json:"phone" validate:"required,min=6,max=20"`
	Line1         string  `json:"line1" validate:"required,max=255"`
	Line2         *string `json:"line2" validate:"omitempty,max=255"`
	Ward          *string `json:"ward" validate:"omitempty,max=120"`
	District      *string `json:"district" validate:"omitempty,max=120"`
	City          string  `json:"city" validate:"required,max=120"`
	Country       string  `json:"country" validate:"omitempty,len=2"`
	PostalCode    *string `json:"postal_code" validate:"omitempty,max=20"`
	IsDefault     bool    `json:"is_default"`
}

// DTO is an address as seen by its owner.
type DTO struct {
	ID            uuid.UUID `json:"id"`
	RecipientName string    `json:"recipient_name"`
	Phone         string    `json:"phone"`
	Line1         string    `json:"line1"`
	Line2         *string   `json:"line2,omitempty"`
	Ward          *string   `json:"ward,omitempty"`
	District      *string   `json:"district,omitempty"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	PostalCode    *string   `json:"postal_code,omitempty"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromModel maps a user_addresses row with its preloaded address.
func FromModel(link models.UserAddress) DTO {
	dto := DTO{IsDefault: link.IsDefault, CreatedAt: link.CreatedAt}
	if a := link.Address; a != nil {
		dto.ID = a.ID
		dto.RecipientName = a.RecipientName
		dto.Phone = a.Phone
		dto.Line1 = a.Line1
		dto.Line2 = a.Line2
		dto.Ward = a.Ward
		dto.District = a.District
		dto.City = a.City
		dto.Country = a.Country
		dto.PostalCode = a.PostalCode
	}
	return dto
}

func (in Input) toModel() *models.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = defaultCountry
	}
	return &models.Address{
		RecipientName: strings.TrimSpace(in.RecipientName),
		Phone:         strings.TrimSpace(in.Phone),
		Line1:         strings.TrimSpace(in.Line1),
		Line2:         trimmed(in.Line2),
		Ward:          trimmed(in.Ward),
		District:      trimmed(in.District),
		City:          strings.TrimSpace(in.City),
		Country:       country,
		PostalCode:    trimmed(in.PostalCode),
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
