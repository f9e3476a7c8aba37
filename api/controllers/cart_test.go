package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/api/middleware"
	cartsvc "github.com/naritchaphan/talad-backend/internal/cart"
)

type stubCartService struct {
	cart    *cartsvc.CartDTO
	err     error
	lastPut cartsvc.PutItemsRequest
	cleared bool
}

func (s *stubCartService) Get(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) PutItems(_ context.Context, _ uuid.UUID, req cartsvc.PutItemsRequest) (*cartsvc.CartDTO, error) {
	s.lastPut = req
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) Clear(context.Context, uuid.UUID) error {
	s.cleared = true
	return s.err
}

func TestCartFetchRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user context, got %d", rec.Code)
	}
}

func TestCartPut(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	productID := uuid.New()

	t.Run("rejects malformed body", func(t *testing.T) {
		body := strings.NewReader(`{"items":[{"product_id":"` + productID.String() + `","qty":0}]}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/cart", body)
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		rec := httptest.NewRecorder()
		CartPut(&stubCartService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for zero qty, got %d", rec.Code)
		}
	})

	t.Run("passes items through", func(t *testing.T) {
		stub := &stubCartService{cart: &cartsvc.CartDTO{}}
		body := strings.NewReader(`{"items":[{"product_id":"` + productID.String() + `","qty":3}]}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/cart", body)
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		rec := httptest.NewRecorder()
		CartPut(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if len(stub.lastPut.Items) != 1 || stub.lastPut.Items[0].ProductID != productID || stub.lastPut.Items[0].Qty != 3 {
			t.Fatalf("unexpected put payload: %+v", stub.lastPut)
		}
	})
}

func TestCartClear(t *testing.T) {
	stub := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	CartClear(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.cleared {
		t.Fatalf("expected Clear to be invoked")
	}
}
