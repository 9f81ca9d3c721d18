package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
)

// Repository owns the candidate_offers table. Claim and Release are
// conditional deletes so two concurrent callers can never both win a row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Open(ctx context.Context, offers []models.CandidateOffer) error
	Claim(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error)
	Release(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error)
	Remaining(ctx context.Context, requestID uuid.UUID) (int64, error)
	PurgeAll(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.CandidateOffer, error)
	HasOffer(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Open(ctx context.Context, offers []models.CandidateOffer) error {
	if len(offers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&offers).Error
}

// Claim removes the caller's own offer row. A false return means another
// party already consumed it (or it never existed).
func (r *repository) Claim(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("request_id = ? AND candidate_id = ?", requestID, candidateID).
		Delete(&models.CandidateOffer{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Release deletes a single offer on the reject path. Same conditional-delete
// semantics as Claim.
func (r *repository) Release(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	return r.Claim(ctx, requestID, candidateID)
}

func (r *repository) Remaining(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CandidateOffer{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

// PurgeAll deletes every open offer for the request and returns the candidate
// ids that lost out, so the fanout can tell them the job is gone.
func (r *repository) PurgeAll(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	var losers []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.CandidateOffer{}).
		Where("request_id = ?", requestID).
		Pluck("candidate_id", &losers).Error
	if err != nil {
		return nil, err
	}
	if len(losers) == 0 {
		return nil, nil
	}
	err = r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&models.CandidateOffer{}).Error
	if err != nil {
		return nil, err
	}
	return losers, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.CandidateOffer, error) {
	var rows []models.CandidateOffer
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("distance_km ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) HasOffer(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CandidateOffer{}).
		Where("request_id = ? AND candidate_id = ?", requestID, candidateID).
		Count(&count).Error
	return count > 0, err
}
