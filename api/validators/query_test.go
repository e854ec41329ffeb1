package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

func TestParsePaginationDefaultsAndClamp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	params, err := ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 1 || params.Limit != pagination.DefaultLimit {
		t.Fatalf("unexpected defaults %+v", params)
	}

	req = httptest.NewRequest(http.MethodGet, "/products?page=3&limit=500", nil)
	params, err = ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 3 || params.Limit != pagination.MaxLimit {
		t.Fatalf("expected clamped limit, got %+v", params)
	}
}

func TestParsePaginationRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?page=abc", nil)
	_, err := ParsePagination(req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?is_active=false", nil)
	value, err := ParseQueryBool(req, "is_active")
	if err != nil || value == nil || *value {
		t.Fatalf("expected false, got %v %v", value, err)
	}
	value, err = ParseQueryBool(req, "missing")
	if err != nil || value != nil {
		t.Fatalf("expected nil for absent param, got %v %v", value, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?is_active=maybe", nil)
	if _, err := ParseQueryBool(req, "is_active"); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}

func TestParseQueryDecimalRejectsNegative(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min_price=-1", nil)
	if _, err := ParseQueryDecimal(req, "min_price"); err == nil {
		t.Fatal("expected error for negative price")
	}
	req = httptest.NewRequest(http.MethodGet, "/?min_price=1500000.50", nil)
	value, err := ParseQueryDecimal(req, "min_price")
	if err != nil || value == nil || value.String() != "1500000.5" {
		t.Fatalf("unexpected value %v %v", value, err)
	}
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseURLUUID(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s got %s (%v)", id, got, err)
	}
	if _, err := ParseURLUUID(req, "missing"); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	if err != nil || token != "abc.def" {
		t.Fatalf("unexpected token %q %v", token, err)
	}
	token, err = BearerToken("abc.def")
	if err != nil || token != "abc.def" {
		t.Fatalf("expected raw token accepted, got %q %v", token, err)
	}
	if _, err := BearerToken("Bearer "); err == nil {
		t.Fatal("expected error for empty bearer")
	}
}
