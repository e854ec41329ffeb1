package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/users"
	"github.com/angelmondragon/netstore-backend/pkg/auth/google"
	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

const usernameAttempts = 5

// GoogleLogin signs in with a Google ID token. Accounts are matched by Google
// subject first, then by email (linking the subject), and created otherwise.
func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google sign-in is not configured")
	}

	identity, err := s.google.Verify(ctx, req.Credential)
	if err != nil {
		if errors.Is(err, google.ErrEmailNotVerified) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google email is not verified")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google credential")
	}

	user, err := s.resolveGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, accountDisabledMessage)
	}
	return s.issue(ctx, user)
}

func (s *service) resolveGoogleUser(ctx context.Context, identity *google.Identity) (*models.User, error) {
	user, err := s.users.FindByGoogleSubject(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup google user")
	}

	user, err = s.users.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if err := s.users.LinkGoogle(ctx, user.ID, identity.Subject); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link google account")
		}
		subject := identity.Subject
		user.GoogleSubject = &subject
		user.EmailVerified = true
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	return s.createGoogleUser(ctx, identity)
}

func (s *service) createGoogleUser(ctx context.Context, identity *google.Identity) (*models.User, error) {
	base := usernameFromEmail(identity.Email)
	fullName := strings.TrimSpace(identity.Name)
	if fullName == "" {
		fullName = base
	}
	var avatar *string
	if identity.Picture != "" {
		picture := identity.Picture
		avatar = &picture
	}
	subject := identity.Subject

	for attempt := 0; attempt < usernameAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%s", base, uuid.NewString()[:6])
		}
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			continue
		}

		user, err := s.users.Create(ctx, users.CreateUserDTO{
			Email:         strings.ToLower(strings.TrimSpace(identity.Email)),
			Username:      candidate,
			FullName:      fullName,
			AvatarURL:     avatar,
			EmailVerified: true,
			AuthProvider:  enums.AuthProviderGoogle,
			GoogleSubject: &subject,
		}, enums.RoleCustomer)
		if err == nil {
			return user, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create google user")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a username")
}

func usernameFromEmail(email string) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	var b strings.Builder
	for _, r := range local {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	name := b.String()
	if len(name) > 40 {
		name = name[:40]
	}
	if len(name) < 3 {
		name = "user" + name
	}
	return name
}
