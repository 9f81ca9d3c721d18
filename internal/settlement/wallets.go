package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/internal/users"
)

type userWallets struct {
	repo users.Repository
}

// NewUserWallets adapts the users repository into the Wallets dependency.
func NewUserWallets(repo users.Repository) Wallets {
	return &userWallets{repo: repo}
}

func (w *userWallets) WithTxIncrementWallet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error {
	return w.repo.WithTx(tx).IncrementWallet(ctx, userID, amountCents)
}
