package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

// LocationCache stores live driver coordinates with a freshness TTL.
type LocationCache interface {
	StoreDriverLocation(ctx context.Context, driverID string, lat, lng float64, ttl time.Duration) error
}

// Service exposes the user operations the dispatch core calls directly.
type Service interface {
	UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
	RegisterPushToken(ctx context.Context, userID uuid.UUID, token *string) error
}

type service struct {
	repo     Repository
	cache    LocationCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService wires the users service. The cache is optional; without it the
// live position only lands in the database.
func NewService(repo Repository, cache LocationCache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

// UpdateDriverLocation persists a driver's position and refreshes the live
// cache the matcher reads. A cache write failure is logged, not surfaced:
// matching degrades to the persisted position.
func (s *service) UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	driver, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading driver")
	}
	if driver.Role != enums.UserRoleDriver {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is not a driver")
	}

	if err := s.repo.UpdateLocation(ctx, driverID, lat, lng); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting driver location")
	}

	if s.cache != nil {
		if err := s.cache.StoreDriverLocation(ctx, driverID.String(), lat, lng, s.cacheTTL); err != nil && s.logg != nil {
			cctx := s.logg.WithField(ctx, "driver_id", driverID.String())
			s.logg.Warn(cctx, "caching driver location failed")
		}
	}
	return nil
}

func (s *service) RegisterPushToken(ctx context.Context, userID uuid.UUID, token *string) error {
	if err := s.repo.UpdatePushToken(ctx, userID, token); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating push token")
	}
	return nil
}
