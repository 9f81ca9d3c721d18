package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

func setupOffersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS candidate_offers (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  role TEXT NOT NULL,
  distance_km REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (request_id, candidate_id)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedOffers(t *testing.T, repo Repository, requestID uuid.UUID, candidates ...uuid.UUID) {
	t.Helper()
	rows := make([]models.CandidateOffer, 0, len(candidates))
	for i, id := range candidates {
		rows = append(rows, models.CandidateOffer{
			ID:          uuid.New(),
			RequestID:   requestID,
			CandidateID: id,
			Role:        enums.UserRoleDriver,
			DistanceKm:  float64(i + 1),
		})
	}
	require.NoError(t, repo.Open(context.Background(), rows))
}

func TestClaimConsumesOfferExactlyOnce(t *testing.T) {
	repo := NewRepository(setupOffersTestDB(t))
	ctx := context.Background()

	requestID := uuid.New()
	winner := uuid.New()
	seedOffers(t, repo, requestID, winner)

	ok, err := repo.Claim(ctx, requestID, winner)
	require.NoError(t, err)
	require.True(t, ok, "first claim should win")

	ok, err = repo.Claim(ctx, requestID, winner)
	require.NoError(t, err)
	require.False(t, ok, "second claim must lose")
}

func TestClaimUnknownCandidateLoses(t *testing.T) {
	repo := NewRepository(setupOffersTestDB(t))
	ctx := context.Background()

	requestID := uuid.New()
	seedOffers(t, repo, requestID, uuid.New())

	ok, err := repo.Claim(ctx, requestID, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReleaseAndRemaining(t *testing.T) {
	repo := NewRepository(setupOffersTestDB(t))
	ctx := context.Background()

	requestID := uuid.New()
	a, b := uuid.New(), uuid.New()
	seedOffers(t, repo, requestID, a, b)

	count, err := repo.Remaining(ctx, requestID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	ok, err := repo.Release(ctx, requestID, a)
	require.NoError(t, err)
	require.True(t, ok)

	count, err = repo.Remaining(ctx, requestID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	ok, err = repo.Release(ctx, requestID, b)
	require.NoError(t, err)
	require.True(t, ok)

	count, err = repo.Remaining(ctx, requestID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPurgeAllReturnsLosers(t *testing.T) {
	repo := NewRepository(setupOffersTestDB(t))
	ctx := context.Background()

	requestID := uuid.New()
	otherRequest := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	seedOffers(t, repo, requestID, a, b)
	seedOffers(t, repo, otherRequest, c)

	losers, err := repo.PurgeAll(ctx, requestID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{a, b}, losers)

	count, err := repo.Remaining(ctx, requestID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Offers for other requests are untouched.
	count, err = repo.Remaining(ctx, otherRequest)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	losers, err = repo.PurgeAll(ctx, requestID)
	require.NoError(t, err)
	require.Empty(t, losers, "purging an empty pool yields no losers")
}

func TestHasOfferAndListOrdering(t *testing.T) {
	repo := NewRepository(setupOffersTestDB(t))
	ctx := context.Background()

	requestID := uuid.New()
	near, far := uuid.New(), uuid.New()
	require.NoError(t, repo.Open(ctx, []models.CandidateOffer{
		{ID: uuid.New(), RequestID: requestID, CandidateID: far, Role: enums.UserRoleDriver, DistanceKm: 9.5},
		{ID: uuid.New(), RequestID: requestID, CandidateID: near, Role: enums.UserRoleDriver, DistanceKm: 0.4},
	}))

	ok, err := repo.HasOffer(ctx, requestID, near)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.HasOffer(ctx, requestID, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)

	rows, err := repo.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, near, rows[0].CandidateID, "closest candidate first")
}
