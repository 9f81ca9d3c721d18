package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

// Wallets credits user balances inside the caller's transaction.
type Wallets interface {
	WithTxIncrementWallet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error
}

// Rates are the configured commission percentages.
type Rates struct {
	DriverCutPercent         int64
	LaundromatCutPercent     int64
	LaundromatSelfCutPercent int64
}

// Breakdown reports what one settlement run credited.
type Breakdown struct {
	TotalCents          int64
	LaundromatCents     int64
	DriverCents         int64
	LaundromatID        uuid.UUID
	DriverID            *uuid.UUID
	ChargeTransactionID uuid.UUID
}

// Service is the settlement engine: commission splits at the pickup-ready
// milestone, plus charge and tip bookkeeping. All mutating methods run inside
// the caller's transaction so the credited funds and the triggering status
// flip commit together.
type Service interface {
	Settle(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest) (*Breakdown, error)
	RecordCharge(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, intentID, methodID *string) (*models.Transaction, error)
	RecordTip(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, driverID uuid.UUID, amountCents int64, intentID, methodID *string) (*models.Transaction, error)
}

type service struct {
	repo    Repository
	wallets Wallets
	rates   Rates
	logg    *logger.Logger
}

// NewService wires the settlement engine.
func NewService(repo Repository, wallets Wallets, rates Rates, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository is required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet incrementer is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, wallets: wallets, rates: rates, logg: logg}, nil
}

// Settle computes the commission split over amount plus accepted amendments
// and credits each recipient: one immutable wallet entry per cut, both
// referencing the order's charge transaction, plus an atomic balance bump.
func (s *service) Settle(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest) (*Breakdown, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.LaundromatID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot settle before a laundromat is assigned")
	}

	repo := s.repo.WithTx(tx)

	charge, err := repo.FindChargeTransaction(ctx, req.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading charge transaction")
	}

	total := req.TotalCents()
	breakdown := &Breakdown{
		TotalCents:          total,
		LaundromatID:        *req.LaundromatID,
		ChargeTransactionID: charge.ID,
	}

	entries := []models.WalletEntry{}
	switch req.DeliveryType {
	case enums.DeliveryTypeSelf:
		breakdown.LaundromatCents = cutOf(total, s.rates.LaundromatSelfCutPercent)
	default:
		if req.DriverID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot settle a driver delivery without a driver")
		}
		breakdown.DriverID = req.DriverID
		breakdown.LaundromatCents = cutOf(total, s.rates.LaundromatCutPercent)
		breakdown.DriverCents = cutOf(total, s.rates.DriverCutPercent)
		entries = append(entries, models.WalletEntry{
			UserID:        *req.DriverID,
			RequestID:     req.ID,
			TransactionID: charge.ID,
			AmountCents:   breakdown.DriverCents,
			Kind:          enums.WalletEntryKindDriverCut,
		})
	}

	entries = append(entries, models.WalletEntry{
		UserID:        *req.LaundromatID,
		RequestID:     req.ID,
		TransactionID: charge.ID,
		AmountCents:   breakdown.LaundromatCents,
		Kind:          enums.WalletEntryKindLaundromatCut,
	})

	if err := repo.CreateWalletEntries(ctx, entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing wallet entries")
	}

	if err := s.wallets.WithTxIncrementWallet(ctx, tx, *req.LaundromatID, breakdown.LaundromatCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting laundromat wallet")
	}
	if breakdown.DriverID != nil && breakdown.DriverCents > 0 {
		if err := s.wallets.WithTxIncrementWallet(ctx, tx, *breakdown.DriverID, breakdown.DriverCents); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting driver wallet")
		}
	}

	lctx := s.logg.WithFields(s.logg.WithRequestRef(ctx, req.ID.String()), map[string]any{
		"total_cents":      breakdown.TotalCents,
		"laundromat_cents": breakdown.LaundromatCents,
		"driver_cents":     breakdown.DriverCents,
		"delivery_type":    req.DeliveryType,
	})
	s.logg.Info(lctx, "settlement recorded")

	return breakdown, nil
}

// RecordCharge writes the main service-charge transaction at order placement.
func (s *service) RecordCharge(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, intentID, methodID *string) (*models.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	txn := &models.Transaction{
		RequestID:       req.ID,
		CustomerID:      req.CustomerID,
		AmountCents:     req.AmountCents + req.FeesCents + req.TaxCents,
		Kind:            enums.TransactionKindCharge,
		Status:          enums.TransactionStatusSucceeded,
		PaymentIntentID: intentID,
		PaymentMethodID: methodID,
	}
	created, err := s.repo.WithTx(tx).CreateTransaction(ctx, txn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing charge transaction")
	}
	return created, nil
}

// RecordTip writes the tip transaction, its wallet entry and the driver's
// balance bump. The payment must already be captured by the caller.
func (s *service) RecordTip(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, driverID uuid.UUID, amountCents int64, intentID, methodID *string) (*models.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	txn, err := repo.CreateTransaction(ctx, &models.Transaction{
		RequestID:       req.ID,
		CustomerID:      req.CustomerID,
		AmountCents:     amountCents,
		Kind:            enums.TransactionKindTip,
		Status:          enums.TransactionStatusSucceeded,
		PaymentIntentID: intentID,
		PaymentMethodID: methodID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing tip transaction")
	}

	err = repo.CreateWalletEntries(ctx, []models.WalletEntry{{
		UserID:        driverID,
		RequestID:     req.ID,
		TransactionID: txn.ID,
		AmountCents:   amountCents,
		Kind:          enums.WalletEntryKindTip,
	}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing tip wallet entry")
	}

	if err := s.wallets.WithTxIncrementWallet(ctx, tx, driverID, amountCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting driver wallet")
	}

	return txn, nil
}

// cutOf applies a whole-number percentage to a minor-unit amount, rounding
// down so the platform absorbs sub-cent remainders.
func cutOf(totalCents, percent int64) int64 {
	return decimal.NewFromInt(totalCents).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
