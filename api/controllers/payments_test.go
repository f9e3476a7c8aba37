package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/api/middleware"
	ordersvc "github.com/naritchaphan/talad-backend/internal/orders"
	paymentsvc "github.com/naritchaphan/talad-backend/internal/payments"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

type stubPaymentService struct {
	presigned    *paymentsvc.PresignSlipResponse
	order        *ordersvc.OrderDTO
	verification *paymentsvc.VerificationDTO
	err          error
	lastVerifier *uuid.UUID
	lastUserID   uuid.UUID
	lastOrderID  uuid.UUID
}

func (s *stubPaymentService) PresignSlipUpload(context.Context, uuid.UUID, paymentsvc.PresignSlipRequest) (*paymentsvc.PresignSlipResponse, error) {
	return s.presigned, s.err
}

func (s *stubPaymentService) AttachSlip(_ context.Context, _ uuid.UUID, orderID uuid.UUID, _ paymentsvc.AttachSlipRequest) (*ordersvc.OrderDTO, error) {
	s.lastOrderID = orderID
	return s.order, s.err
}

func (s *stubPaymentService) VerifyPayment(_ context.Context, verifiedBy *uuid.UUID, orderID uuid.UUID, _ paymentsvc.VerifyPaymentRequest) (*paymentsvc.VerificationDTO, error) {
	s.lastVerifier = verifiedBy
	s.lastOrderID = orderID
	return s.verification, s.err
}

func (s *stubPaymentService) VerifyForUser(_ context.Context, userID, orderID uuid.UUID, _ paymentsvc.VerifyPaymentRequest) (*paymentsvc.VerificationDTO, error) {
	s.lastVerifier = nil
	s.lastUserID = userID
	s.lastOrderID = orderID
	return s.verification, s.err
}

func TestPaymentsPresign(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("rejects unsupported content type", func(t *testing.T) {
		body := strings.NewReader(`{"order_id":"` + orderID.String() + `","content_type":"application/pdf"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/presign", body)
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		rec := httptest.NewRecorder()
		PaymentsPresign(&stubPaymentService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubPaymentService{presigned: &paymentsvc.PresignSlipResponse{UploadURL: "https://storage.googleapis.com/x"}}
		body := strings.NewReader(`{"order_id":"` + orderID.String() + `","content_type":"image/jpeg"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/presign", body)
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		rec := httptest.NewRecorder()
		PaymentsPresign(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
	})
}

func TestOrderAttachSlip(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("requires object key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/slip",
			strings.NewReader(`{}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		OrderAttachSlip(&stubPaymentService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubPaymentService{order: &ordersvc.OrderDTO{}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/slip",
			strings.NewReader(`{"object_key":"slips/`+orderID.String()+`/x.jpg"}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		OrderAttachSlip(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastOrderID != orderID {
			t.Fatalf("expected order %s, got %s", orderID, stub.lastOrderID)
		}
	})
}

func TestOrderVerifyPayment(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("verifies own order without an actor", func(t *testing.T) {
		stub := &stubPaymentService{verification: &paymentsvc.VerificationDTO{}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/verify",
			strings.NewReader(`{}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		OrderVerifyPayment(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastVerifier != nil {
			t.Fatalf("expected no verifier for customer flow, got %v", stub.lastVerifier)
		}
		if stub.lastUserID != userID {
			t.Fatalf("expected user %s, got %s", userID, stub.lastUserID)
		}
		if stub.lastOrderID != orderID {
			t.Fatalf("expected order %s, got %s", orderID, stub.lastOrderID)
		}
	})

	t.Run("amount mismatch surfaces 400", func(t *testing.T) {
		stub := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeValidation, "slip amount 10.00 does not match order total")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/verify",
			strings.NewReader(`{}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		OrderVerifyPayment(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAdminVerifyPayment(t *testing.T) {
	logg := testLogger()
	adminID := uuid.New()
	orderID := uuid.New()

	t.Run("passes verifier identity", func(t *testing.T) {
		stub := &stubPaymentService{verification: &paymentsvc.VerificationDTO{}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/verify-payment",
			strings.NewReader(`{}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		AdminVerifyPayment(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastVerifier == nil || *stub.lastVerifier != adminID {
			t.Fatalf("verifier not passed: %v", stub.lastVerifier)
		}
		if stub.lastOrderID != orderID {
			t.Fatalf("expected order %s, got %s", orderID, stub.lastOrderID)
		}
	})

	t.Run("duplicate ref surfaces 409", func(t *testing.T) {
		stub := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeConflict, "transaction reference already used")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/verify-payment",
			strings.NewReader(`{}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
		req = withURLParam(req, "orderId", orderID.String())
		rec := httptest.NewRecorder()
		AdminVerifyPayment(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}
