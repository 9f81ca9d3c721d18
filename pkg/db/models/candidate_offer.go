package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// CandidateOffer is an ephemeral invitation linking a service request to one
// nearby driver or laundromat. Rows exist only between the matching pass and
// the moment the request is claimed, released, or purged.
type CandidateOffer struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID   uuid.UUID      `gorm:"column:request_id;type:uuid;not null;uniqueIndex:ux_candidate_offers_request_candidate"`
	CandidateID uuid.UUID      `gorm:"column:candidate_id;type:uuid;not null;uniqueIndex:ux_candidate_offers_request_candidate"`
	Role        enums.UserRole `gorm:"column:role;type:text;not null"`
	DistanceKm  float64        `gorm:"column:distance_km;not null;default:0"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
