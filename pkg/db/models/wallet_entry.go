package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// WalletEntry is an immutable ledger line crediting a driver or laundromat.
// Rows are append-only; balances are derived from the sum of entries and the
// denormalized counter on the user row.
type WalletEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	RequestID     uuid.UUID             `gorm:"column:request_id;type:uuid;not null;index"`
	TransactionID uuid.UUID             `gorm:"column:transaction_id;type:uuid;not null"`
	AmountCents   int64                 `gorm:"column:amount_cents;not null"`
	Kind          enums.WalletEntryKind `gorm:"column:kind;type:text;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
