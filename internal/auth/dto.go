package auth

import (
	"github.com/angelmondragon/netstore-backend/internal/users"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName string  `json:"full_name" validate:"required,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,min=6,max=20"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the (possibly expired) access token whose jti keys the
// refresh session, plus the refresh token itself.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// GoogleLoginRequest carries the Google Sign-In ID token.
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// TokenPair is returned by every successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthResponse pairs the tokens with the signed-in user.
type AuthResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
