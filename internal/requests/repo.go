package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Repository owns service_requests and change_requests. Every status flip
// that can race goes through a conditional UPDATE whose WHERE clause encodes
// the expected prior state, so losers see zero rows affected instead of
// clobbering the winner.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, role enums.UserRole, limit, offset int) ([]models.ServiceRequest, int64, error)
	Save(ctx context.Context, req *models.ServiceRequest) error

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (bool, error)
	AssignDriver(ctx context.Context, id, driverID uuid.UUID, from, to enums.RequestStatus) (bool, error)
	AssignLaundromat(ctx context.Context, id, laundromatID uuid.UUID, from, to enums.RequestStatus) (bool, error)
	MarkSettled(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, settledAt time.Time) (bool, error)
	AddAdditionalAmount(ctx context.Context, id uuid.UUID, deltaCents int64) error
	AddTip(ctx context.Context, id uuid.UUID, tipCents int64) error

	CreateChangeRequest(ctx context.Context, change *models.ChangeRequest) (*models.ChangeRequest, error)
	FindPendingChangeRequest(ctx context.Context, requestID uuid.UUID) (*models.ChangeRequest, error)
	ResolveChangeRequest(ctx context.Context, changeID uuid.UUID, status enums.ChangeRequestStatus, resolvedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListByActor(ctx context.Context, actorID uuid.UUID, role enums.UserRole, limit, offset int) ([]models.ServiceRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceRequest{})
	switch role {
	case enums.UserRoleDriver:
		query = query.Where("driver_id = ?", actorID)
	case enums.UserRoleLaundromat:
		query = query.Where("laundromat_id = ?", actorID)
	default:
		query = query.Where("customer_id = ?", actorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ServiceRequest
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Save(ctx context.Context, req *models.ServiceRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AssignDriver(ctx context.Context, id, driverID uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ? AND driver_id IS NULL AND status = ?", id, from).
		Updates(map[string]any{
			"driver_id": driverID,
			"status":    to,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AssignLaundromat(ctx context.Context, id, laundromatID uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ? AND laundromat_id IS NULL AND status = ?", id, from).
		Updates(map[string]any{
			"laundromat_id": laundromatID,
			"status":        to,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkSettled flips the status and stamps settled_at in one conditional
// update. The settled_at IS NULL guard makes a second settlement attempt a
// visible no-op rather than a double credit.
func (r *repository) MarkSettled(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, settledAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND settled_at IS NULL", id, from).
		Updates(map[string]any{
			"status":     to,
			"settled_at": settledAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AddAdditionalAmount(ctx context.Context, id uuid.UUID, deltaCents int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ?", id).
		Update("additional_amount_cents", gorm.Expr("additional_amount_cents + ?", deltaCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddTip(ctx context.Context, id uuid.UUID, tipCents int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ?", id).
		Update("tip_cents", gorm.Expr("tip_cents + ?", tipCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateChangeRequest(ctx context.Context, change *models.ChangeRequest) (*models.ChangeRequest, error) {
	if err := r.db.WithContext(ctx).Create(change).Error; err != nil {
		return nil, err
	}
	return change, nil
}

func (r *repository) FindPendingChangeRequest(ctx context.Context, requestID uuid.UUID) (*models.ChangeRequest, error) {
	var change models.ChangeRequest
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestID, enums.ChangeRequestStatusPending).
		First(&change).Error
	if err != nil {
		return nil, err
	}
	return &change, nil
}

func (r *repository) ResolveChangeRequest(ctx context.Context, changeID uuid.UUID, status enums.ChangeRequestStatus, resolvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChangeRequest{}).
		Where("id = ? AND status = ?", changeID, enums.ChangeRequestStatusPending).
		Updates(map[string]any{
			"status":      status,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
