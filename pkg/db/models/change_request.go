package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// ChangeRequest is a laundromat-proposed price amendment awaiting the
// customer's decision. At most one PENDING row may exist per request,
// enforced by a partial unique index in the migration.
type ChangeRequest struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID    uuid.UUID                 `gorm:"column:request_id;type:uuid;not null;index"`
	LaundromatID uuid.UUID                 `gorm:"column:laundromat_id;type:uuid;not null"`
	AmountCents  int64                     `gorm:"column:amount_cents;not null"`
	Reason       *string                   `gorm:"column:reason"`
	Status       enums.ChangeRequestStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	ResolvedAt   *time.Time                `gorm:"column:resolved_at"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
