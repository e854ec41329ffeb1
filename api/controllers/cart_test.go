package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/internal/cart"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

type stubCartService struct {
	cart.Service
	record  *cart.CartDTO
	err     error
	gotAdd  cart.AddItemInput
	gotLine uuid.UUID
	cleared bool
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return s.record, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	s.gotAdd = input
	return s.record, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, lineID uuid.UUID, input cart.UpdateItemInput) (*cart.CartDTO, error) {
	s.gotLine = lineID
	return s.record, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func TestCartFetchSuccess(t *testing.T) {
	record := &cart.CartDTO{ID: uuid.New(), TotalItems: 2, Subtotal: decimal.NewFromInt(2990000)}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = withUser(req, uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()

	CartFetch(&stubCartService{record: record}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cart.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != record.ID || !envelope.Data.Subtotal.Equal(record.Subtotal) {
		t.Fatalf("unexpected cart %+v", envelope.Data)
	}
}

func TestCartFetchMissingUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()

	CartFetch(&stubCartService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	body := `{"product_item_id":"` + uuid.NewString() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req = withUser(req, uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()

	CartAddItem(&stubCartService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "only 3 left in stock")}
	body := `{"product_item_id":"` + itemID.String() + `","quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req = withUser(req, uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()

	CartAddItem(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.gotAdd.ProductItemID != itemID || svc.gotAdd.Quantity != 5 {
		t.Fatalf("unexpected input %+v", svc.gotAdd)
	}
}

func TestCartUpdateItemUsesPathID(t *testing.T) {
	lineID := uuid.New()
	svc := &stubCartService{record: &cart.CartDTO{}}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/x", strings.NewReader(`{"quantity":3}`))
	req = withUser(req, uuid.New(), enums.RoleCustomer)
	req = withURLParam(req, "itemId", lineID.String())
	resp := httptest.NewRecorder()

	CartUpdateItem(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotLine != lineID {
		t.Fatalf("expected line %s got %s", lineID, svc.gotLine)
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req = withUser(req, uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()

	CartClear(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || !svc.cleared {
		t.Fatalf("expected cart cleared, status %d", resp.Code)
	}
}
