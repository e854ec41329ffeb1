package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// CreateInput is the POST /reviews body.
type CreateInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Title     *string   `json:"title" validate:"omitempty,max=200"`
	Comment   *string   `json:"comment" validate:"omitempty,max=2000"`
}

// ListFilters narrows the admin review listing.
type ListFilters struct {
	IsApproved *bool
	ProductID  *uuid.UUID
	Rating     *int
}

type ReviewDTO struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Reviewer   string     `json:"reviewer,omitempty"`
	Rating     int        `json:"rating"`
	Title      *string    `json:"title,omitempty"`
	Comment    *string    `json:"comment,omitempty"`
	IsApproved bool       `json:"is_approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func FromModel(m models.ProductReview) ReviewDTO {
	dto := ReviewDTO{
		ID:         m.ID,
		ProductID:  m.ProductID,
		OrderID:    m.OrderID,
		UserID:     m.UserID,
		Rating:     m.Rating,
		Title:      m.Title,
		Comment:    m.Comment,
		IsApproved: m.IsApproved,
		ApprovedAt: m.ApprovedAt,
		CreatedAt:  m.CreatedAt,
	}
	if m.User != nil {
		dto.Reviewer = m.User.FullName
		if dto.Reviewer == "" {
			dto.Reviewer = m.User.Username
		}
	}
	return dto
}

func fromModels(rows []models.ProductReview) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
