package payments

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/internal/orders"
	"github.com/naritchaphan/talad-backend/pkg/config"
	dbpkg "github.com/naritchaphan/talad-backend/pkg/db"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/outbox"
	"github.com/naritchaphan/talad-backend/pkg/slipverify"
)

// Service handles slip uploads and payment verification.
type Service interface {
	PresignSlipUpload(ctx context.Context, userID uuid.UUID, req PresignSlipRequest) (*PresignSlipResponse, error)
	AttachSlip(ctx context.Context, userID, orderID uuid.UUID, req AttachSlipRequest) (*orders.OrderDTO, error)
	VerifyPayment(ctx context.Context, verifiedBy *uuid.UUID, orderID uuid.UUID, req VerifyPaymentRequest) (*VerificationDTO, error)
	VerifyForUser(ctx context.Context, userID, orderID uuid.UUID, req VerifyPaymentRequest) (*VerificationDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type slipVerifier interface {
	Verify(ctx context.Context, req slipverify.VerifyRequest) (*slipverify.SlipResult, error)
}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type service struct {
	orders   *orders.Repository
	repo     *Repository
	verifier slipVerifier
	signer   urlSigner
	tx       txRunner
	recorder *activity.Recorder
	outbox   *outbox.Service
	gcs      config.GCSConfig
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Orders   *orders.Repository
	Repo     *Repository
	Verifier slipVerifier
	Signer   urlSigner
	Tx       txRunner
	Recorder *activity.Recorder
	Outbox   *outbox.Service
	GCS      config.GCSConfig
}

// NewService constructs the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("slip verifier required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("storage signer required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		orders:   params.Orders,
		repo:     params.Repo,
		verifier: params.Verifier,
		signer:   params.Signer,
		tx:       params.Tx,
		recorder: params.Recorder,
		outbox:   params.Outbox,
		gcs:      params.GCS,
	}, nil
}

// PresignSlipUpload hands the client a direct upload URL for its slip
// image. The object key is namespaced under the order so stale slips can
// be swept per order.
func (s *service) PresignSlipUpload(ctx context.Context, userID uuid.UUID, req PresignSlipRequest) (*PresignSlipResponse, error) {
	order, err := s.orders.FindForUser(ctx, req.OrderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	objectKey := fmt.Sprintf("slips/%s/%s%s", order.ID, uuid.NewString(), extensionFor(req.ContentType))
	uploadURL, err := s.signer.SignedURL("", objectKey, req.ContentType, s.gcs.UploadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}
	return &PresignSlipResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(s.gcs.UploadURLExpiry).UTC(),
	}, nil
}

// AttachSlip pins the uploaded object to the order so verification knows
// what to look at.
func (s *service) AttachSlip(ctx context.Context, userID, orderID uuid.UUID, req AttachSlipRequest) (*orders.OrderDTO, error) {
	if !strings.HasPrefix(req.ObjectKey, fmt.Sprintf("slips/%s/", orderID)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object key does not belong to this order")
	}

	var attached *orders.OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)

		order, err := txOrders.FindForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}

		order.SlipObjectKey = &req.ObjectKey
		if ref := strings.TrimSpace(req.TransactionRef); ref != "" {
			order.TransactionRef = &ref
		}
		if err := txOrders.Save(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "transaction_ref") {
				return pkgerrors.New(pkgerrors.CodeConflict, "transaction reference already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		attached = orders.ToDTO(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}

// VerifyPayment checks the attached slip against the verification provider
// and, inside one transaction, claims the transaction reference and moves
// the order to paid. A duplicate reference or an amount mismatch parks the
// order in problem for manual review; that state change commits even
// though the verification itself fails.
func (s *service) VerifyPayment(ctx context.Context, verifiedBy *uuid.UUID, orderID uuid.UUID, req VerifyPaymentRequest) (*VerificationDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}
	if order.SlipObjectKey == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no slip attached to order")
	}
	// A pending order should never carry a verification row; finding one
	// means a previous verification half-applied and needs manual review.
	if _, err := s.repo.FindByOrder(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a verification")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification")
	}

	// The provider call happens before any row lock is taken; it can be
	// slow and must never hold up concurrent checkouts.
	verifyReq := slipverify.VerifyRequest{QRPayload: req.QRPayload}
	if verifyReq.QRPayload == "" {
		imageURL, err := s.signer.SignedReadURL("", *order.SlipObjectKey, s.gcs.DownloadURLExpiry)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign slip url")
		}
		verifyReq.Image = imageURL
	}
	result, err := s.verifier.Verify(ctx, verifyReq)
	if err != nil {
		return nil, err
	}

	var dto *VerificationDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		txRepo := s.repo.WithTx(tx)

		locked, err := txOrders.FindForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if locked.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}
		before := orders.ToDTO(locked)

		amountSatang := result.Amount.Mul(decimal.NewFromInt(100))
		total := decimal.NewFromInt(int64(locked.TotalSatang))
		if !amountSatang.Equal(total) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("slip amount %s does not match order total", result.Amount.StringFixed(2)))
		}

		now := time.Now().UTC()
		verification := &models.PaymentVerification{
			OrderID:        locked.ID,
			TransactionRef: result.TransactionRef,
			AmountSatang:   int(amountSatang.IntPart()),
			VerifiedBy:     verifiedBy,
			VerifiedAt:     now,
		}
		if result.SenderBank != "" {
			verification.SenderBank = &result.SenderBank
		}
		if result.SenderName != "" {
			verification.SenderName = &result.SenderName
		}
		if err := txRepo.Insert(ctx, verification); err != nil {
			// A unique violation aborts the transaction, so the
			// problem-parking happens after the rollback below.
			if dbpkg.IsUniqueViolation(err, "transaction_ref") {
				return pkgerrors.New(pkgerrors.CodeConflict, "transaction reference already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert verification")
		}

		locked.Status = enums.OrderStatusPaid
		locked.PaidAt = &now
		locked.TransactionRef = &result.TransactionRef
		if err := txOrders.Save(ctx, locked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}

		dto = &VerificationDTO{
			OrderID:        locked.ID,
			TransactionRef: verification.TransactionRef,
			AmountSatang:   verification.AmountSatang,
			SenderBank:     verification.SenderBank,
			SenderName:     verification.SenderName,
			VerifiedBy:     verifiedBy,
			VerifiedAt:     now,
		}
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: verifiedBy,
			Action:      enums.ActivityPaymentVerified,
			EntityType:  "order",
			EntityID:    &locked.ID,
			Before:      before,
			After:       orders.ToDTO(locked),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record verification")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentVerified,
			AggregateType: enums.AggregatePayment,
			AggregateID:   locked.ID,
			Data:          dto,
			Version:       1,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil &&
			(typed.Code() == pkgerrors.CodeConflict || typed.Code() == pkgerrors.CodeValidation) {
			s.parkProblem(ctx, orderID, verifiedBy, err.Error())
		}
		return nil, err
	}
	return dto, nil
}

// VerifyForUser runs verification on the customer's own order. The
// verification records no actor, which marks it auto-verified.
func (s *service) VerifyForUser(ctx context.Context, userID, orderID uuid.UUID, req VerifyPaymentRequest) (*VerificationDTO, error) {
	if _, err := s.orders.FindForUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.VerifyPayment(ctx, nil, orderID, req)
}

// parkProblem moves a failed verification's order into problem in its own
// transaction, after the verification transaction rolled back.
func (s *service) parkProblem(ctx context.Context, orderID uuid.UUID, actor *uuid.UUID, reason string) {
	_ = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)

		order, err := txOrders.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		before := orders.ToDTO(order)

		order.Status = enums.OrderStatusProblem
		if err := txOrders.Save(ctx, order); err != nil {
			return err
		}
		s.recorder.RecordOrLog(ctx, tx, activity.Entry{
			ActorUserID:  actor,
			Action:       enums.ActivityPaymentRejected,
			EntityType:   "order",
			EntityID:     &order.ID,
			Before:       before,
			After:        orders.ToDTO(order),
			ErrorMessage: &reason,
		})
		return nil
	})
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
