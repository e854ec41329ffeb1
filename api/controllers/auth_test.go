package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/netstore-backend/api/middleware"
	"github.com/angelmondragon/netstore-backend/internal/auth"
	"github.com/angelmondragon/netstore-backend/internal/users"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

type stubAuthService struct {
	auth.Service
	response   *auth.AuthResponse
	tokens     *auth.TokenPair
	err        error
	gotLogin   auth.LoginRequest
	gotRefresh auth.RefreshRequest
	revoked    string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	return s.response, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	s.gotLogin = req
	return s.response, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	s.gotRefresh = req
	return s.tokens, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return s.err
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{response: &auth.AuthResponse{
		TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"},
		User:      &users.UserDTO{Email: "buyer@example.com"},
	}}
	body := `{"email":"buyer@example.com","username":"buyer","password":"supersecret","full_name":"Buyer One"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()

	AuthRegister(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data auth.AuthResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.User.Email != "buyer@example.com" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"not-an-email","username":"ab","password":"short","full_name":"x"}`))
	resp := httptest.NewRecorder()

	AuthRegister(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestAuthLoginPropagatesServiceError(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"buyer@example.com","password":"wrong"}`))
	resp := httptest.NewRecorder()

	AuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.gotLogin.Email != "buyer@example.com" {
		t.Fatalf("expected login request forwarded, got %+v", svc.gotLogin)
	}
}

func TestAuthRefreshFallsBackToAuthorizationHeader(t *testing.T) {
	svc := &stubAuthService{tokens: &auth.TokenPair{AccessToken: "next", RefreshToken: "next-refresh"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer expired-access")
	resp := httptest.NewRecorder()

	AuthRefresh(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotRefresh.AccessToken != "expired-access" || svc.gotRefresh.RefreshToken != "old-refresh" {
		t.Fatalf("unexpected refresh request %+v", svc.gotRefresh)
	}
}

func TestAuthRefreshRequiresAccessToken(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	resp := httptest.NewRecorder()

	AuthRefresh(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "session-123"))
	resp := httptest.NewRecorder()

	AuthLogout(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.revoked != "session-123" {
		t.Fatalf("expected session revoked, got %q", svc.revoked)
	}
}

func TestAuthLogoutWithoutSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()

	AuthLogout(&stubAuthService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
