package payments

import (
	"time"

	"github.com/google/uuid"
)

// PresignSlipRequest asks for a direct-to-bucket upload URL.
type PresignSlipRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	ContentType string    `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp"`
}

// PresignSlipResponse carries the one-shot upload URL and the object key
// the client must attach to the order afterwards.
type PresignSlipResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttachSlipRequest pins an uploaded slip to a pending order. The
// transaction ref is what the customer reads off their banking app; the
// provider result remains authoritative at verification time.
type AttachSlipRequest struct {
	ObjectKey      string `json:"object_key" validate:"required"`
	TransactionRef string `json:"transaction_ref,omitempty" validate:"omitempty,max=64"`
}

// VerifyPaymentRequest triggers slip verification for an order. QRPayload
// is the decoded slip QR when the client scanned it; otherwise the stored
// slip image is sent to the provider.
type VerifyPaymentRequest struct {
	QRPayload string `json:"qr_payload,omitempty"`
}

// VerificationDTO reports a completed verification.
type VerificationDTO struct {
	OrderID        uuid.UUID  `json:"order_id"`
	TransactionRef string     `json:"transaction_ref"`
	AmountSatang   int        `json:"amount_satang"`
	SenderBank     *string    `json:"sender_bank,omitempty"`
	SenderName     *string    `json:"sender_name,omitempty"`
	VerifiedBy     *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt     time.Time  `json:"verified_at"`
}
