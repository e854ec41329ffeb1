// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	// ErrInvalidCredential is returned for tokens that fail signature, audience or expiry checks.
	ErrInvalidCredential = errors.New("invalid google credential")
	// ErrEmailNotVerified is returned when Google has not verified the account email.
	ErrEmailNotVerified = errors.New("google email not verified")
)

// Identity is the subset of the ID token the auth service needs.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier validates a Google credential and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// IDTokenVerifier checks tokens against Google's published certificates.
type IDTokenVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewIDTokenVerifier builds a verifier for the configured OAuth client id.
func NewIDTokenVerifier(ctx context.Context, clientID string) (*IDTokenVerifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create idtoken validator: %w", err)
	}
	return &IDTokenVerifier{clientID: clientID, validator: v}, nil
}

// Verify implements Verifier.
func (v *IDTokenVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidCredential
	}

	payload, err := v.validator.Validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (*Identity, error) {
	if payload == nil || payload.Subject == "" {
		return nil, ErrInvalidCredential
	}

	id := &Identity{
		Subject:       payload.Subject,
		Email:         strings.ToLower(claimString(payload.Claims, "email")),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
	}
	if id.Email == "" {
		return nil, ErrInvalidCredential
	}
	if !id.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return id, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}
