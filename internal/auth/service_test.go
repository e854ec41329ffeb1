package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/netstore-backend/internal/users"
	pkgAuth "github.com/angelmondragon/netstore-backend/pkg/auth"
	"github.com/angelmondragon/netstore-backend/pkg/auth/google"
	"github.com/angelmondragon/netstore-backend/pkg/auth/session"
	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

type fakeSessions struct {
	sessions map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]string{}}
}

func (f *fakeSessions) Generate(_ context.Context, userID uuid.UUID, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.sessions[accessID] = userID.String() + "." + token
	return token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != userID.String()+"."+provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	newID := session.NewAccessID()
	token, err := f.Generate(ctx, userID, newID)
	return newID, token, err
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.sessions, accessID)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}

type stubVerifier struct {
	identity *google.Identity
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (*google.Identity, error) {
	return s.identity, s.err
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "netstore", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}
}

type harness struct {
	svc      Service
	repo     *users.Repository
	sessions *fakeSessions
}

func newHarness(t *testing.T, verifier google.Verifier) harness {
	t.Helper()
	repo := users.NewRepository(dbtest.New(t))
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Hasher:         plainHasher{},
		GoogleVerifier: verifier,
		JWTConfig:      testJWT(),
	})
	require.NoError(t, err)
	return harness{svc: svc, repo: repo, sessions: sessions}
}

func registerAlice(t *testing.T, h harness) *AuthResponse {
	t.Helper()
	resp, err := h.svc.Register(context.Background(), RegisterRequest{
		Email:    " Alice@Example.com ",
		Username: "Alice",
		Password: "supersecret",
		FullName: "Alice Nguyen",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterIssuesTokens(t *testing.T) {
	h := newHarness(t, nil)
	resp := registerAlice(t, h)

	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, enums.RoleCustomer, resp.User.Role)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)

	claims, err := pkgAuth.ParseAccessToken(testJWT(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)
	assert.Contains(t, h.sessions.sessions, claims.ID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	h := newHarness(t, nil)
	registerAlice(t, h)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, RegisterRequest{Email: "ALICE@example.com", Username: "other", Password: "supersecret", FullName: "X"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = h.svc.Register(ctx, RegisterRequest{Email: "new@example.com", Username: "alice", Password: "supersecret", FullName: "X"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = h.svc.Register(ctx, RegisterRequest{Email: "new@example.com", Username: "bad name!", Password: "supersecret", FullName: "X"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)
	registered := registerAlice(t, h)
	ctx := context.Background()

	resp, err := h.svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = h.svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, h.repo.SetActive(ctx, registered.User.ID, false))
	_, err = h.svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "supersecret"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestRefreshRotatesSession(t *testing.T) {
	h := newHarness(t, nil)
	registered := registerAlice(t, h)
	ctx := context.Background()

	pair, err := h.svc.Refresh(ctx, RefreshRequest{AccessToken: registered.AccessToken, RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, pair.RefreshToken)

	// the old refresh token is single use
	_, err = h.svc.Refresh(ctx, RefreshRequest{AccessToken: registered.AccessToken, RefreshToken: registered.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: pair.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	h := newHarness(t, nil)
	registered := registerAlice(t, h)
	ctx := context.Background()

	accessID := session.NewAccessID()
	refresh, err := h.sessions.Generate(ctx, registered.User.ID, accessID)
	require.NoError(t, err)
	expired, err := pkgAuth.MintAccessToken(testJWT(), time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: registered.User.ID,
		Role:   enums.RoleCustomer,
		JTI:    accessID,
	})
	require.NoError(t, err)

	pair, err := h.svc.Refresh(ctx, RefreshRequest{AccessToken: expired, RefreshToken: refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t, nil)
	registered := registerAlice(t, h)
	claims, err := pkgAuth.ParseAccessToken(testJWT(), registered.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(context.Background(), claims.ID))
	assert.NotContains(t, h.sessions.sessions, claims.ID)

	err = h.svc.Logout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestGoogleLoginCreatesThenReusesAccount(t *testing.T) {
	verifier := stubVerifier{identity: &google.Identity{
		Subject:       "google-123",
		Email:         "Bob.Tran@gmail.com",
		EmailVerified: true,
		Name:          "Bob Tran",
	}}
	h := newHarness(t, verifier)
	ctx := context.Background()

	first, err := h.svc.GoogleLogin(ctx, GoogleLoginRequest{Credential: "token"})
	require.NoError(t, err)
	assert.Equal(t, "bob.tran", first.User.Username)
	assert.Equal(t, enums.AuthProviderGoogle, first.User.AuthProvider)
	assert.True(t, first.User.EmailVerified)

	second, err := h.svc.GoogleLogin(ctx, GoogleLoginRequest{Credential: "token"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestGoogleLoginLinksExistingEmail(t *testing.T) {
	verifier := stubVerifier{identity: &google.Identity{Subject: "google-alice", Email: "alice@example.com", EmailVerified: true}}
	h := newHarness(t, verifier)
	registered := registerAlice(t, h)

	resp, err := h.svc.GoogleLogin(context.Background(), GoogleLoginRequest{Credential: "token"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	linked, err := h.repo.FindByGoogleSubject(context.Background(), "google-alice")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, linked.ID)
}

func TestGoogleLoginFailures(t *testing.T) {
	ctx := context.Background()

	_, err := newHarness(t, nil).svc.GoogleLogin(ctx, GoogleLoginRequest{Credential: "token"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	h := newHarness(t, stubVerifier{err: google.ErrEmailNotVerified})
	_, err = h.svc.GoogleLogin(ctx, GoogleLoginRequest{Credential: "token"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	h = newHarness(t, stubVerifier{err: errors.New("bad signature")})
	_, err = h.svc.GoogleLogin(ctx, GoogleLoginRequest{Credential: "token"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "bob.tran", usernameFromEmail("Bob.Tran@gmail.com"))
	assert.Equal(t, "userab", usernameFromEmail("ab@x.io"))
	assert.Equal(t, "user", usernameFromEmail("__@x.io"))
	assert.LessOrEqual(t, len(usernameFromEmail(strings.Repeat("a", 80)+"@x.io")), 40)
}
