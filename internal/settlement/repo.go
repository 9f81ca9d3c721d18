package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Repository owns transactions and the append-only wallet ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindChargeTransaction(ctx context.Context, requestID uuid.UUID) (*models.Transaction, error)
	CreateWalletEntries(ctx context.Context, entries []models.WalletEntry) error
	ListWalletEntriesByRequest(ctx context.Context, requestID uuid.UUID) ([]models.WalletEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) FindChargeTransaction(ctx context.Context, requestID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND kind = ?", requestID, enums.TransactionKindCharge).
		Order("created_at ASC").
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) CreateWalletEntries(ctx context.Context, entries []models.WalletEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListWalletEntriesByRequest(ctx context.Context, requestID uuid.UUID) ([]models.WalletEntry, error) {
	var entries []models.WalletEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
