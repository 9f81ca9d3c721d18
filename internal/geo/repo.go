package geo

import (
	"context"

	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Repository finds candidates near a point using the database's trig functions.
type Repository interface {
	FindNearby(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]Candidate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a geo repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// earthRadiusKm is the mean Earth radius used by the great-circle formula.
const earthRadiusKm = 6371.0

// Great-circle distance, computed in SQL so ordering and the radius cutoff
// happen in one pass. acos input is clamped to [-1, 1] to survive rounding
// when the candidate sits at the origin.
const nearbySQL = `
SELECT user_id, lat, lng, distance_km FROM (
    SELECT id AS user_id, lat, lng,
           ? * acos(LEAST(1, GREATEST(-1,
               cos(radians(?)) * cos(radians(lat)) * cos(radians(lng) - radians(?)) +
               sin(radians(?)) * sin(radians(lat))
           ))) AS distance_km
    FROM users
    WHERE role = ?
      AND active = true
      AND (? = false OR ready_for_request = true)
      AND lat IS NOT NULL
      AND lng IS NOT NULL
) AS nearby
WHERE distance_km <= ?
ORDER BY distance_km ASC`

func (r *repository) FindNearby(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]Candidate, error) {
	requireReady := role == enums.UserRoleLaundromat

	var candidates []Candidate
	err := r.db.WithContext(ctx).
		Raw(nearbySQL, earthRadiusKm, lat, lng, lat, role, requireReady, radiusKm).
		Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
