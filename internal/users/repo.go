package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Repository reads and updates the narrow user slice the dispatch core owns:
// wallet counters, coordinates and delivery handles. Account lifecycle is not
// served here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	FindLaundromatTwin(ctx context.Context, driver *models.User) (*models.User, error)
	IncrementWallet(ctx context.Context, userID uuid.UUID, amountCents int64) error
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error
	UpdatePushToken(ctx context.Context, userID uuid.UUID, token *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindLaundromatTwin resolves the laundromat account a dual-role driver also
// operates, matched by exact country, phone and email. A driver with no
// recorded phone or email has no twin; nil identity fields never match.
func (r *repository) FindLaundromatTwin(ctx context.Context, driver *models.User) (*models.User, error) {
	if driver == nil {
		return nil, fmt.Errorf("driver is required")
	}
	if driver.CountryID == nil || driver.Phone == nil || driver.Email == nil {
		return nil, gorm.ErrRecordNotFound
	}

	var twin models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", enums.UserRoleLaundromat).
		Where("country_id = ? AND phone = ? AND email = ?", *driver.CountryID, *driver.Phone, *driver.Email).
		Where("id <> ?", driver.ID).
		First(&twin).Error
	if err != nil {
		return nil, err
	}
	return &twin, nil
}

// IncrementWallet adds to the denormalized balance with a single SQL
// increment so concurrent settlement paths never lose an update.
func (r *repository) IncrementWallet(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_amount_cents", gorm.Expr("wallet_amount_cents + ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"lat": lat, "lng": lng})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdatePushToken(ctx context.Context, userID uuid.UUID, token *string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("push_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err is the record-missing sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
