package geo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

type stubRepo struct {
	candidates []Candidate
	err        error

	gotRole   enums.UserRole
	gotRadius float64
}

func (s *stubRepo) FindNearby(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]Candidate, error) {
	s.gotRole = role
	s.gotRadius = radiusKm
	return s.candidates, s.err
}

type stubCache struct {
	locations map[string][2]float64
	err       error
}

func (s *stubCache) GetDriverLocation(ctx context.Context, driverID string) (float64, float64, bool, error) {
	if s.err != nil {
		return 0, 0, false, s.err
	}
	loc, ok := s.locations[driverID]
	if !ok {
		return 0, 0, false, nil
	}
	return loc[0], loc[1], true, nil
}

func TestHaversineKm(t *testing.T) {
	// New York to Los Angeles is roughly 3936 km.
	got := HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	if math.Abs(got-3936) > 20 {
		t.Fatalf("unexpected NYC-LA distance %v", got)
	}

	if d := HaversineKm(10, 20, 10, 20); d != 0 {
		t.Fatalf("identical points should have zero distance, got %v", d)
	}
}

func TestFindCandidatesValidation(t *testing.T) {
	svc, err := NewService(&stubRepo{}, nil, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if _, err := svc.FindCandidates(context.Background(), "PILOT", 0, 0, 10); err == nil {
		t.Fatal("expected invalid role to error")
	}
	if _, err := svc.FindCandidates(context.Background(), enums.UserRoleDriver, 0, 0, 0); err == nil {
		t.Fatal("expected non-positive radius to error")
	}
}

func TestFindCandidatesEmptyIsNotAnError(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	got, err := svc.FindCandidates(context.Background(), enums.UserRoleLaundromat, 40, -74, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if repo.gotRole != enums.UserRoleLaundromat {
		t.Fatalf("role not passed through, got %s", repo.gotRole)
	}
}

func TestFindCandidatesLiveLocationOverride(t *testing.T) {
	near := uuid.New()
	drifted := uuid.New()

	// Both drivers are in radius per the DB, but 'drifted' has since moved
	// roughly 111 km north per the live cache.
	repo := &stubRepo{candidates: []Candidate{
		{UserID: drifted, Lat: 40.0, Lng: -74.0, DistanceKm: 1},
		{UserID: near, Lat: 40.05, Lng: -74.0, DistanceKm: 5},
	}}
	cache := &stubCache{locations: map[string][2]float64{
		drifted.String(): {41.0, -74.0},
	}}

	svc, err := NewService(repo, cache, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	got, err := svc.FindCandidates(context.Background(), enums.UserRoleDriver, 40.0, -74.0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected drifted driver filtered out, got %d candidates", len(got))
	}
	if got[0].UserID != near {
		t.Fatalf("expected remaining candidate %s, got %s", near, got[0].UserID)
	}
}

func TestFindCandidatesCacheErrorFallsBack(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{candidates: []Candidate{{UserID: id, Lat: 40, Lng: -74, DistanceKm: 2}}}
	cache := &stubCache{err: errors.New("redis down")}

	svc, err := NewService(repo, cache, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	got, err := svc.FindCandidates(context.Background(), enums.UserRoleDriver, 40, -74, 10)
	if err != nil {
		t.Fatalf("cache errors must not fail matching: %v", err)
	}
	if len(got) != 1 || got[0].UserID != id {
		t.Fatalf("expected persisted position fallback, got %v", got)
	}
}

func TestFindCandidatesReordersOnLivePositions(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	repo := &stubRepo{candidates: []Candidate{
		{UserID: a, Lat: 40.01, Lng: -74.0, DistanceKm: 1.1},
		{UserID: b, Lat: 40.05, Lng: -74.0, DistanceKm: 5.5},
	}}
	// b has moved essentially on top of the pickup point.
	cache := &stubCache{locations: map[string][2]float64{
		b.String(): {40.0001, -74.0},
	}}

	svc, err := NewService(repo, cache, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	got, err := svc.FindCandidates(context.Background(), enums.UserRoleDriver, 40.0, -74.0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both drivers, got %d", len(got))
	}
	if got[0].UserID != b {
		t.Fatalf("expected live position to promote driver b, order was %v then %v", got[0].UserID, got[1].UserID)
	}
}
