package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID            uuid.UUID          `json:"id"`
	Email         string             `json:"email"`
	Username      string             `json:"username"`
	FullName      string             `json:"full_name"`
	Phone         *string            `json:"phone,omitempty"`
	AvatarURL     *string            `json:"avatar_url,omitempty"`
	IsActive      bool               `json:"is_active"`
	EmailVerified bool               `json:"email_verified"`
	AuthProvider  enums.AuthProvider `json:"auth_provider"`
	Role          enums.Role         `json:"role"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CreateUserDTO holds the data the repo needs to persist a new account.
type CreateUserDTO struct {
	Email         string
	Username      string
	PasswordHash  *string
	FullName      string
	Phone         *string
	AvatarURL     *string
	EmailVerified bool
	AuthProvider  enums.AuthProvider
	GoogleSubject *string
}

// UpdateProfileInput carries the optional profile fields a user may change.
type UpdateProfileInput struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	Phone     *string `json:"phone" validate:"omitempty,min=6,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// ChangePasswordInput is the body of the password change endpoint.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ListFilters narrows the admin user listing.
type ListFilters struct {
	Search   string
	IsActive *bool
	Role     *enums.Role
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		FullName:      u.FullName,
		Phone:         u.Phone,
		AvatarURL:     u.AvatarURL,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		AuthProvider:  u.AuthProvider,
		Role:          u.PrimaryRole(),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	provider := c.AuthProvider
	if provider == "" {
		provider = enums.AuthProviderLocal
	}
	return &models.User{
		Email:         c.Email,
		Username:      c.Username,
		PasswordHash:  c.PasswordHash,
		FullName:      c.FullName,
		Phone:         c.Phone,
		AvatarURL:     c.AvatarURL,
		IsActive:      true,
		EmailVerified: c.EmailVerified,
		AuthProvider:  provider,
		GoogleSubject: c.GoogleSubject,
	}
}
