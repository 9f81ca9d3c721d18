package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Transaction records a captured or intended payment against a request:
// the main service charge at order placement, or a tip.
type Transaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID       uuid.UUID               `gorm:"column:request_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index"`
	AmountCents     int64                   `gorm:"column:amount_cents;not null"`
	Kind            enums.TransactionKind   `gorm:"column:kind;type:text;not null"`
	Status          enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentIntentID *string                 `gorm:"column:payment_intent_id"`
	PaymentMethodID *string                 `gorm:"column:payment_method_id"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
