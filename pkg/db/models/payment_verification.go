package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentVerification records a successful slip check. TransactionRef is
// globally unique; inserting a duplicate is how replayed slips are caught.
type PaymentVerification struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	TransactionRef string     `gorm:"column:transaction_ref;not null;uniqueIndex"`
	AmountSatang   int        `gorm:"column:amount_satang;not null"`
	SenderBank     *string    `gorm:"column:sender_bank"`
	SenderName     *string    `gorm:"column:sender_name"`
	VerifiedBy     *uuid.UUID `gorm:"column:verified_by;type:uuid"`
	VerifiedAt     time.Time  `gorm:"column:verified_at;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
