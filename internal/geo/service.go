package geo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

// Candidate is one matchable user within the search radius.
type Candidate struct {
	UserID     uuid.UUID `gorm:"column:user_id"`
	Lat        float64   `gorm:"column:lat"`
	Lng        float64   `gorm:"column:lng"`
	DistanceKm float64   `gorm:"column:distance_km"`
}

// LocationCache serves live driver coordinates when a fresh fix exists.
type LocationCache interface {
	GetDriverLocation(ctx context.Context, driverID string) (lat, lng float64, ok bool, err error)
}

// Service finds active, ready candidates near a point, closest first.
type Service interface {
	FindCandidates(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]Candidate, error)
}

type service struct {
	repo  Repository
	cache LocationCache
	logg  *logger.Logger
}

// NewService wires the matcher. The location cache is optional; without it
// drivers are ranked on their last persisted position.
func NewService(repo Repository, cache LocationCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("geo repository is required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) FindCandidates(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]Candidate, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid candidate role %q", role)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusKm)
	}

	candidates, err := s.repo.FindNearby(ctx, role, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("finding nearby %s candidates: %w", role, err)
	}

	if role == enums.UserRoleDriver && s.cache != nil {
		candidates = s.refreshDriverPositions(ctx, candidates, lat, lng, radiusKm)
	}
	return candidates, nil
}

// refreshDriverPositions swaps stale DB coordinates for live cached fixes,
// then re-applies the radius cutoff and distance ordering. Cache misses and
// errors fall back to the persisted position.
func (s *service) refreshDriverPositions(ctx context.Context, candidates []Candidate, originLat, originLng, radiusKm float64) []Candidate {
	refreshed := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		liveLat, liveLng, ok, err := s.cache.GetDriverLocation(ctx, c.UserID.String())
		if err != nil {
			if s.logg != nil {
				cctx := s.logg.WithField(ctx, "driver_id", c.UserID.String())
				s.logg.Warn(cctx, "driver location cache lookup failed")
			}
		} else if ok {
			c.Lat = liveLat
			c.Lng = liveLng
			c.DistanceKm = HaversineKm(originLat, originLng, liveLat, liveLng)
		}
		if c.DistanceKm <= radiusKm {
			refreshed = append(refreshed, c)
		}
	}
	sort.SliceStable(refreshed, func(i, j int) bool {
		return refreshed[i].DistanceKm < refreshed[j].DistanceKm
	})
	return refreshed
}
