package requests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/internal/geo"
	"github.com/freshfold/freshfold-backend/internal/offers"
	"github.com/freshfold/freshfold-backend/internal/settlement"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/config"
	"github.com/freshfold/freshfold-backend/pkg/db"
	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
	"github.com/freshfold/freshfold-backend/pkg/events"
	"github.com/freshfold/freshfold-backend/pkg/logger"
	"github.com/freshfold/freshfold-backend/pkg/metrics"
)

// CreateRequestInput carries a new order. Monetary fields arrive priced by
// the catalog layer upstream; the state machine never computes prices.
type CreateRequestInput struct {
	CustomerID   uuid.UUID
	AddressID    *uuid.UUID
	PickupLat    float64
	PickupLng    float64
	DeliveryType enums.DeliveryType
	ServiceType  enums.ServiceType

	WeightKg     float64
	BagCount     int
	Express      bool
	Fragrance    bool
	Instructions *string

	AmountCents int64
	FeesCents   int64
	TaxCents    int64

	PaymentMethodID string
}

// UpdateRequestInput edits ordering attributes before a driver has
// confirmed. AmountCents is the re-priced base amount for the new attributes.
type UpdateRequestInput struct {
	WeightKg     *float64
	BagCount     *int
	Express      *bool
	Fragrance    *bool
	Instructions *string
	AmountCents  *int64
}

// Service is the request state machine: the only entry point through which a
// service request changes state. Each operation validates the transition,
// mutates inside a transaction, and publishes a domain event after commit.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*models.ServiceRequest, error)
	UpdateRequest(ctx context.Context, requestID, customerID uuid.UUID, input UpdateRequestInput) (*models.ServiceRequest, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error)
	ListRequests(ctx context.Context, actorID uuid.UUID, role enums.UserRole, limit, offset int) ([]models.ServiceRequest, int64, error)

	AcceptAsDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error)
	RejectAsDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error)
	AcceptAsLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error)
	RejectAsLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error)
	AssignToLaundromat(ctx context.Context, requestID uuid.UUID, laundromatIDs []uuid.UUID) (*models.ServiceRequest, error)

	ConfirmByDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error)
	ConfirmByLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error)

	CreateChangeRequest(ctx context.Context, requestID, laundromatID uuid.UUID, amountCents int64, reason *string) (*models.ServiceRequest, error)
	ResolveChangeRequest(ctx context.Context, requestID, customerID uuid.UUID, resolution enums.ChangeRequestStatus) (*models.ServiceRequest, error)

	ReadyForPickup(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error)
	ConfirmPickup(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error)
	StartDelivery(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error)
	ConfirmDelivery(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error)

	CancelByCustomer(ctx context.Context, requestID, customerID uuid.UUID) (*models.ServiceRequest, error)
	SendTip(ctx context.Context, requestID, customerID uuid.UUID, amountCents int64, paymentMethodID string) (*models.ServiceRequest, error)
}

// Deps lists everything the state machine touches.
type Deps struct {
	DB         *db.Client
	Repo       Repository
	Offers     offers.Repository
	Users      users.Repository
	Geo        geo.Service
	Settlement settlement.Service
	Payments   settlement.PaymentClient
	Bus        *events.Bus
	Metrics    *metrics.DispatchMetrics
	Dispatch   config.DispatchConfig
	Logger     *logger.Logger
}

type service struct {
	db       *db.Client
	repo     Repository
	offers   offers.Repository
	users    users.Repository
	geo      geo.Service
	settle   settlement.Service
	payments settlement.PaymentClient
	bus      *events.Bus
	metrics  *metrics.DispatchMetrics
	dispatch config.DispatchConfig
	logg     *logger.Logger
}

// NewService wires the state machine. Payments may be nil in environments
// without a payment provider; operations that capture money then fail with a
// dependency error instead of pretending to charge.
func NewService(deps Deps) (Service, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("requests repository is required")
	}
	if deps.Offers == nil {
		return nil, fmt.Errorf("offers repository is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if deps.Geo == nil {
		return nil, fmt.Errorf("geo matcher is required")
	}
	if deps.Settlement == nil {
		return nil, fmt.Errorf("settlement engine is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:       deps.DB,
		repo:     deps.Repo,
		offers:   deps.Offers,
		users:    deps.Users,
		geo:      deps.Geo,
		settle:   deps.Settlement,
		payments: deps.Payments,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		dispatch: deps.Dispatch,
		logg:     deps.Logger,
	}, nil
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.ServiceRequest, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	customer, err := s.users.FindByID(ctx, input.CustomerID)
	if err != nil {
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}

	// Capture before opening the transaction so a provider failure aborts
	// cleanly with nothing persisted.
	var intentID *string
	var methodID *string
	if input.PaymentMethodID != "" {
		captured, err := s.capturePayment(ctx, customer, input.AmountCents+input.FeesCents+input.TaxCents, input.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		intentID = &captured
		methodID = &input.PaymentMethodID
	}

	role := matchRoleFor(input.DeliveryType)
	candidates, err := s.geo.FindCandidates(ctx, role, input.PickupLat, input.PickupLng, s.dispatch.RadiusKm)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "matching candidates")
	}

	req := &models.ServiceRequest{
		CustomerID:   input.CustomerID,
		AddressID:    input.AddressID,
		PickupLat:    &input.PickupLat,
		PickupLng:    &input.PickupLng,
		DeliveryType: input.DeliveryType,
		ServiceType:  input.ServiceType,
		WeightKg:     input.WeightKg,
		BagCount:     input.BagCount,
		Express:      input.Express,
		Fragrance:    input.Fragrance,
		Instructions: input.Instructions,
		AmountCents:  input.AmountCents,
		FeesCents:    input.FeesCents,
		TaxCents:     input.TaxCents,
		Status:       enums.RequestStatusInit,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating request")
		}
		if _, err := s.settle.RecordCharge(ctx, tx, req, intentID, methodID); err != nil {
			return err
		}
		return s.openSearch(ctx, tx, req, role, candidates)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(req.Status.String())
	s.publishCreated(ctx, req, role, candidates)
	return req, nil
}

// openSearch moves a freshly created or driver-confirmed request into the
// matching phase, or straight to the NO_* terminal when nobody is in range.
func (s *service) openSearch(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, role enums.UserRole, candidates []geo.Candidate) error {
	repo := s.repo.WithTx(tx)

	if len(candidates) == 0 {
		trig := TriggerExhaustDrivers
		if role == enums.UserRoleLaundromat {
			trig = TriggerExhaustLaundromats
		}
		next, err := NextStatus(req.Status, trig)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, req.ID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "closing unmatched request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		return nil
	}

	trig := TriggerOpenDriverSearch
	if role == enums.UserRoleLaundromat {
		trig = TriggerOpenLaundromatSearch
	}
	next, err := NextStatus(req.Status, trig)
	if err != nil {
		return err
	}

	rows := make([]models.CandidateOffer, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.CandidateOffer{
			RequestID:   req.ID,
			CandidateID: c.UserID,
			Role:        role,
			DistanceKm:  c.DistanceKm,
		})
	}
	if err := s.offers.WithTx(tx).Open(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening candidate offers")
	}

	ok, err := repo.UpdateStatus(ctx, req.ID, req.Status, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening search")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
	}
	req.Status = next
	s.metrics.AddOffersOpened(role.String(), len(rows))
	return nil
}

func (s *service) UpdateRequest(ctx context.Context, requestID, customerID uuid.UUID, input UpdateRequestInput) (*models.ServiceRequest, error) {
	var updated *models.ServiceRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request belongs to another customer")
		}
		// Edits are only allowed before the load has been weighed and
		// confirmed: by the driver on the driver path, by the laundromat
		// on the self drop-off path.
		if !editableStatus(req) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request can no longer be edited")
		}

		if input.WeightKg != nil {
			if *input.WeightKg <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
			}
			req.WeightKg = *input.WeightKg
		}
		if input.BagCount != nil {
			if *input.BagCount <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "bag count must be positive")
			}
			req.BagCount = *input.BagCount
		}
		if input.Express != nil {
			req.Express = *input.Express
		}
		if input.Fragrance != nil {
			req.Fragrance = *input.Fragrance
		}
		if input.Instructions != nil {
			req.Instructions = input.Instructions
		}
		if input.AmountCents != nil {
			if *input.AmountCents < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
			}
			req.AmountCents = *input.AmountCents
		}

		if err := repo.Save(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving request")
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return s.loadRequest(ctx, s.repo, requestID)
}

func (s *service) ListRequests(ctx context.Context, actorID uuid.UUID, role enums.UserRole, limit, offset int) ([]models.ServiceRequest, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, total, err := s.repo.ListByActor(ctx, actorID, role, limit, offset)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing requests")
	}
	return rows, total, nil
}

func (s *service) loadRequest(ctx context.Context, repo Repository, requestID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := repo.FindByID(ctx, requestID)
	if err != nil {
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading request")
	}
	return req, nil
}

func (s *service) capturePayment(ctx context.Context, customer *models.User, amountCents int64, paymentMethodID string) (string, error) {
	if s.payments == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment capture is not available")
	}
	customerID := ""
	if customer.StripeCustomerID != nil {
		customerID = *customer.StripeCustomerID
	}
	intentID, err := s.payments.CreatePaymentIntent(ctx, amountCents, customerID, paymentMethodID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capturing payment")
	}
	return intentID, nil
}

func (s *service) publish(ctx context.Context, name string, req *models.ServiceRequest, notices []Notice) {
	s.bus.Publish(ctx, events.Event{
		Name: name,
		Payload: RequestEvent{
			RequestID: req.ID,
			Status:    req.Status,
			Notices:   notices,
		},
	})
}

func (s *service) publishCreated(ctx context.Context, req *models.ServiceRequest, role enums.UserRole, candidates []geo.Candidate) {
	if len(candidates) == 0 {
		name := EventNoDriver
		evt := enums.NotifyEventNoDriverUser
		body := "No delivery partner is available near you right now."
		if role == enums.UserRoleLaundromat {
			name = EventNoLaundromat
			evt = enums.NotifyEventNoLaundromatUser
			body = "No laundromat is available near you right now."
		}
		s.publish(ctx, name, req, []Notice{
			notice(req.CustomerID, evt, "No partner available", body, req),
		})
		return
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}
	evt := enums.NotifyEventNewRequestDriver
	body := "A new pickup request is available near you."
	if role == enums.UserRoleLaundromat {
		evt = enums.NotifyEventNewRequestLaundromat
		body = "A new laundry request is available near you."
	}
	s.publish(ctx, EventRequestCreated, req, offerNotices(req, ids, evt, "New request", body))
}

func editableStatus(req *models.ServiceRequest) bool {
	switch req.Status {
	case enums.RequestStatusInit, enums.RequestStatusRequestingDriver, enums.RequestStatusDriverAccepted:
		return true
	case enums.RequestStatusRequestingLaundromat, enums.RequestStatusLaundromatAccepted:
		return req.DeliveryType == enums.DeliveryTypeSelf
	}
	return false
}

func matchRoleFor(deliveryType enums.DeliveryType) enums.UserRole {
	if deliveryType == enums.DeliveryTypeSelf {
		return enums.UserRoleLaundromat
	}
	return enums.UserRoleDriver
}

func validateCreateInput(input CreateRequestInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	if !input.ServiceType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}
	if input.PickupLat < -90 || input.PickupLat > 90 || input.PickupLng < -180 || input.PickupLng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup coordinates out of range")
	}
	if input.WeightKg <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if input.BagCount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "bag count must be positive")
	}
	if input.AmountCents < 0 || input.FeesCents < 0 || input.TaxCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	return nil
}
