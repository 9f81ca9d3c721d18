package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
)

type stubRepo struct {
	Repository

	users          map[uuid.UUID]*models.User
	locationWrites int
	tokenWrites    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubRepo) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	if _, ok := s.users[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.locationWrites++
	return nil
}

func (s *stubRepo) UpdatePushToken(ctx context.Context, userID uuid.UUID, token *string) error {
	if _, ok := s.users[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.tokenWrites++
	return nil
}

type stubLocationCache struct {
	writes int
	err    error
}

func (s *stubLocationCache) StoreDriverLocation(ctx context.Context, driverID string, lat, lng float64, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.writes++
	return nil
}

func TestUpdateDriverLocation(t *testing.T) {
	repo := newStubRepo()
	cache := &stubLocationCache{}
	driverID := uuid.New()
	repo.users[driverID] = &models.User{ID: driverID, Role: enums.UserRoleDriver}

	svc, err := NewService(repo, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.UpdateDriverLocation(context.Background(), driverID, 40.7, -74.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.locationWrites != 1 {
		t.Fatalf("expected one persisted location write, got %d", repo.locationWrites)
	}
	if cache.writes != 1 {
		t.Fatalf("expected one cache write, got %d", cache.writes)
	}
}

func TestUpdateDriverLocationRejectsBadInput(t *testing.T) {
	repo := newStubRepo()
	driverID := uuid.New()
	customerID := uuid.New()
	repo.users[driverID] = &models.User{ID: driverID, Role: enums.UserRoleDriver}
	repo.users[customerID] = &models.User{ID: customerID, Role: enums.UserRoleCustomer}

	svc, err := NewService(repo, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	err = svc.UpdateDriverLocation(context.Background(), driverID, 91.0, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad latitude, got %v", err)
	}

	err = svc.UpdateDriverLocation(context.Background(), customerID, 40.0, -74.0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non-driver, got %v", err)
	}

	err = svc.UpdateDriverLocation(context.Background(), uuid.New(), 40.0, -74.0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateDriverLocationToleratesCacheFailure(t *testing.T) {
	repo := newStubRepo()
	driverID := uuid.New()
	repo.users[driverID] = &models.User{ID: driverID, Role: enums.UserRoleDriver}
	cache := &stubLocationCache{err: context.DeadlineExceeded}

	svc, err := NewService(repo, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.UpdateDriverLocation(context.Background(), driverID, 40.0, -74.0); err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
	if repo.locationWrites != 1 {
		t.Fatalf("expected persisted write despite cache failure")
	}
}

func TestRegisterPushToken(t *testing.T) {
	repo := newStubRepo()
	userID := uuid.New()
	repo.users[userID] = &models.User{ID: userID, Role: enums.UserRoleDriver}

	svc, err := NewService(repo, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	token := "fcm-token"
	if err := svc.RegisterPushToken(context.Background(), userID, &token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.tokenWrites != 1 {
		t.Fatalf("expected one token write, got %d", repo.tokenWrites)
	}

	err = svc.RegisterPushToken(context.Background(), uuid.New(), &token)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
