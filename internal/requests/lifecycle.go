package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/db"
	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
)

// AcceptAsDriver claims the caller's offer, assigns the driver and purges
// every other open offer. Two concurrent accepts are serialized by the
// conditional offer delete plus the driver_id IS NULL guard: exactly one
// caller wins, the other gets a conflict.
func (s *service) AcceptAsDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	var losers []uuid.UUID
	var twinAssigned bool

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}

		claimed, err := s.offers.WithTx(tx).Claim(ctx, requestID, driverID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming offer")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer already claimed or not held")
		}

		next, err := NextStatus(req.Status, TriggerDriverAccept)
		if err != nil {
			return err
		}
		ok, err := repo.AssignDriver(ctx, requestID, driverID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning driver")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request already assigned")
		}
		req.DriverID = &driverID
		req.Status = next

		losers, err = s.offers.WithTx(tx).PurgeAll(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purging open offers")
		}

		twinAssigned, err = s.assignTwinLaundromat(ctx, tx, req, driverID)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.IncClaim(enums.UserRoleDriver.String(), "lost")
		}
		return nil, err
	}

	s.metrics.IncClaim(enums.UserRoleDriver.String(), "won")
	s.metrics.IncTransition(req.Status.String())

	notices := []Notice{
		notice(req.CustomerID, enums.NotifyEventDriverAcceptedUser,
			"Driver on the way", "A delivery partner accepted your request.", req),
	}
	if twinAssigned {
		notices = append(notices, notice(req.CustomerID, enums.NotifyEventLaundromatAcceptedUser,
			"Laundromat assigned", "Your delivery partner's laundromat will handle the order.", req))
	}
	notices = append(notices, cancellationNotices(req, losers)...)
	s.publish(ctx, EventDriverAccepted, req, notices)
	return req, nil
}

// assignTwinLaundromat auto-assigns the driver's linked laundromat account
// when the driver operates both sides, skipping the laundromat search.
func (s *service) assignTwinLaundromat(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, driverID uuid.UUID) (bool, error) {
	usersRepo := s.users.WithTx(tx)
	driver, err := usersRepo.FindByID(ctx, driverID)
	if err != nil {
		if users.IsNotFound(err) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading driver")
	}
	if !driver.IsLaundromatDriverBoth {
		return false, nil
	}

	twin, err := usersRepo.FindLaundromatTwin(ctx, driver)
	if err != nil {
		if users.IsNotFound(err) {
			// Incomplete identity data means no link, not an error.
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up twin laundromat")
	}

	next, err := NextStatus(req.Status, TriggerLaundromatAccept)
	if err != nil {
		return false, err
	}
	ok, err := s.repo.WithTx(tx).AssignLaundromat(ctx, req.ID, twin.ID, req.Status, next)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning twin laundromat")
	}
	if !ok {
		return false, pkgerrors.New(pkgerrors.CodeConflict, "request already has a laundromat")
	}
	req.LaundromatID = &twin.ID
	req.Status = next
	return true, nil
}

// RejectAsDriver releases only the caller's offer. The last rejection flips
// the request to NO_DRIVER; the conditional status update makes that flip
// happen exactly once even on concurrent final rejections.
func (s *service) RejectAsDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error) {
	return s.rejectOffer(ctx, requestID, driverID, enums.UserRoleDriver)
}

// RejectAsLaundromat mirrors RejectAsDriver for the laundromat search.
func (s *service) RejectAsLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error) {
	return s.rejectOffer(ctx, requestID, laundromatID, enums.UserRoleLaundromat)
}

func (s *service) rejectOffer(ctx context.Context, requestID, candidateID uuid.UUID, role enums.UserRole) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	var exhausted bool

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}

		released, err := s.offers.WithTx(tx).Release(ctx, requestID, candidateID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "releasing offer")
		}
		if !released {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer already claimed or not held")
		}

		remaining, err := s.offers.WithTx(tx).Remaining(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting open offers")
		}
		if remaining > 0 {
			return nil
		}

		trig := TriggerExhaustDrivers
		if role == enums.UserRoleLaundromat {
			trig = TriggerExhaustLaundromats
		}
		next, err := NextStatus(req.Status, trig)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "closing exhausted request")
		}
		if ok {
			req.Status = next
			exhausted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncClaim(role.String(), "rejected")
	if exhausted {
		s.metrics.IncTransition(req.Status.String())
		s.publishExhausted(ctx, req, role)
	}
	return req, nil
}

func (s *service) publishExhausted(ctx context.Context, req *models.ServiceRequest, role enums.UserRole) {
	if role == enums.UserRoleDriver {
		s.publish(ctx, EventNoDriver, req, []Notice{
			notice(req.CustomerID, enums.NotifyEventNoDriverUser,
				"No partner available", "No delivery partner could take your request.", req),
		})
		return
	}

	notices := []Notice{
		notice(req.CustomerID, enums.NotifyEventNoLaundromatUser,
			"No laundromat available", "No laundromat could take your request.", req),
	}
	if req.DriverID != nil {
		notices = append(notices, notice(*req.DriverID, enums.NotifyEventNoLaundromatDriver,
			"No laundromat available", "No laundromat could take the request you are delivering.", req))
	}
	s.publish(ctx, EventNoLaundromat, req, notices)
}

// AcceptAsLaundromat claims the laundromat's offer and purges the rest, with
// the same race discipline as the driver accept.
func (s *service) AcceptAsLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	var losers []uuid.UUID

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}

		claimed, err := s.offers.WithTx(tx).Claim(ctx, requestID, laundromatID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming offer")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer already claimed or not held")
		}

		next, err := NextStatus(req.Status, TriggerLaundromatAccept)
		if err != nil {
			return err
		}
		ok, err := repo.AssignLaundromat(ctx, requestID, laundromatID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning laundromat")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request already assigned")
		}
		req.LaundromatID = &laundromatID
		req.Status = next

		losers, err = s.offers.WithTx(tx).PurgeAll(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purging open offers")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.IncClaim(enums.UserRoleLaundromat.String(), "lost")
		}
		return nil, err
	}

	s.metrics.IncClaim(enums.UserRoleLaundromat.String(), "won")
	s.metrics.IncTransition(req.Status.String())

	notices := []Notice{
		notice(req.CustomerID, enums.NotifyEventLaundromatAcceptedUser,
			"Laundromat assigned", "A laundromat accepted your request.", req),
	}
	if req.DriverID != nil {
		notices = append(notices, notice(*req.DriverID, enums.NotifyEventAcceptedDriver,
			"Laundromat assigned", "A laundromat accepted the request you are delivering.", req))
	}
	notices = append(notices, cancellationNotices(req, losers)...)
	s.publish(ctx, EventLaundromatAccepted, req, notices)
	return req, nil
}

// AssignToLaundromat replaces automatic matching with an operator-selected
// candidate set. Every id must be an active, ready laundromat.
func (s *service) AssignToLaundromat(ctx context.Context, requestID uuid.UUID, laundromatIDs []uuid.UUID) (*models.ServiceRequest, error) {
	if len(laundromatIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one laundromat id is required")
	}

	selected, err := s.users.FindByIDs(ctx, laundromatIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading laundromats")
	}
	if len(selected) != len(laundromatIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more laundromats not found")
	}
	for _, candidate := range selected {
		if candidate.Role != enums.UserRoleLaundromat || !candidate.Active || !candidate.ReadyForRequest {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "laundromat is not eligible for assignment")
		}
	}

	var req *models.ServiceRequest
	var replaced []uuid.UUID

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}

		next, err := NextStatus(req.Status, TriggerOpenLaundromatSearch)
		if err != nil {
			return err
		}

		replaced, err = s.offers.WithTx(tx).PurgeAll(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing open offers")
		}

		rows := make([]models.CandidateOffer, 0, len(laundromatIDs))
		for _, id := range laundromatIDs {
			rows = append(rows, models.CandidateOffer{
				RequestID:   requestID,
				CandidateID: id,
				Role:        enums.UserRoleLaundromat,
			})
		}
		if err := s.offers.WithTx(tx).Open(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening assigned offers")
		}

		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening assigned search")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddOffersOpened(enums.UserRoleLaundromat.String(), len(laundromatIDs))
	s.metrics.IncTransition(req.Status.String())

	notices := offerNotices(req, laundromatIDs, enums.NotifyEventNewRequestDirectLaundry,
		"New request", "A laundry request was assigned to you.")
	notices = append(notices, cancellationNotices(req, replaced)...)
	s.publish(ctx, EventRequestCreated, req, notices)
	return req, nil
}

// ConfirmByDriver records the post-weighing acknowledgement and, unless a
// laundromat is already assigned, launches the laundromat matching pass.
func (s *service) ConfirmByDriver(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	var laundromatIDs []uuid.UUID

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.DriverID == nil || *req.DriverID != driverID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "caller is not the assigned driver")
		}

		next, err := NextStatus(req.Status, TriggerDriverConfirm)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirming as driver")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next

		if req.LaundromatID != nil {
			return nil
		}

		lat, lng := pickupPoint(req)
		candidates, err := s.geo.FindCandidates(ctx, enums.UserRoleLaundromat, lat, lng, s.dispatch.RadiusKm)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "matching laundromats")
		}
		for _, c := range candidates {
			laundromatIDs = append(laundromatIDs, c.UserID)
		}
		return s.openSearch(ctx, tx, req, enums.UserRoleLaundromat, candidates)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(req.Status.String())

	notices := []Notice{
		notice(req.CustomerID, enums.NotifyEventDriverConfirmUser,
			"Pickup confirmed", "Your delivery partner confirmed the pickup.", req),
	}
	switch {
	case req.LaundromatID != nil:
		notices = append(notices, notice(*req.LaundromatID, enums.NotifyEventDriverConfirmLaundromat,
			"Incoming order", "The delivery partner confirmed an order headed your way.", req))
	case len(laundromatIDs) > 0:
		notices = append(notices, offerNotices(req, laundromatIDs, enums.NotifyEventNewRequestLaundromat,
			"New request", "A new laundry request is available near you.")...)
	default:
		notices = append(notices, notice(req.CustomerID, enums.NotifyEventNoLaundromatUser,
			"No laundromat available", "No laundromat could take your request.", req))
		notices = append(notices, notice(driverID, enums.NotifyEventNoLaundromatDriver,
			"No laundromat available", "No laundromat could take the request you are delivering.", req))
	}
	s.publish(ctx, EventDriverConfirmed, req, notices)
	return req, nil
}

// ConfirmByLaundromat moves an accepted order into processing.
func (s *service) ConfirmByLaundromat(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.transitionByAssignee(ctx, requestID, laundromatID, assigneeLaundromat, TriggerLaundromatConfirm)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventLaundromatConfirmed, req, []Notice{
		notice(req.CustomerID, enums.NotifyEventLaundromatConfirmUser,
			"Order in progress", "The laundromat started processing your order.", req),
	})
	return req, nil
}

// CreateChangeRequest proposes a price amendment; only one may be pending at
// a time, enforced both here and by a partial unique index.
func (s *service) CreateChangeRequest(ctx context.Context, requestID, laundromatID uuid.UUID, amountCents int64, reason *string) (*models.ServiceRequest, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change amount must be positive")
	}

	var req *models.ServiceRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.LaundromatID == nil || *req.LaundromatID != laundromatID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "caller is not the assigned laundromat")
		}

		next, err := NextStatus(req.Status, TriggerOpenChangeRequest)
		if err != nil {
			return err
		}

		_, err = repo.CreateChangeRequest(ctx, &models.ChangeRequest{
			RequestID:    requestID,
			LaundromatID: laundromatID,
			AmountCents:  amountCents,
			Reason:       reason,
			Status:       enums.ChangeRequestStatusPending,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a pending change request already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating change request")
		}

		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flagging change request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(req.Status.String())
	s.publish(ctx, EventChangeRequested, req, []Notice{
		notice(req.CustomerID, enums.NotifyEventChangeRequestCreatedUser,
			"Price change proposed", changeRequestBody(amountCents), req),
	})
	return req, nil
}

// ResolveChangeRequest records the customer's decision. Acceptance adds the
// proposed amount to the amendment total; both outcomes return the request
// to IN_PROGRESS.
func (s *service) ResolveChangeRequest(ctx context.Context, requestID, customerID uuid.UUID, resolution enums.ChangeRequestStatus) (*models.ServiceRequest, error) {
	if resolution != enums.ChangeRequestStatusAccepted && resolution != enums.ChangeRequestStatusReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution must be ACCEPTED or REJECT")
	}

	var req *models.ServiceRequest
	var accepted bool

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request belongs to another customer")
		}

		next, err := NextStatus(req.Status, TriggerResolveChangeRequest)
		if err != nil {
			return err
		}

		change, err := repo.FindPendingChangeRequest(ctx, requestID)
		if err != nil {
			if users.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no pending change request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading change request")
		}

		ok, err := repo.ResolveChangeRequest(ctx, change.ID, resolution, nowUTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving change request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "change request already resolved")
		}

		if resolution == enums.ChangeRequestStatusAccepted {
			if err := repo.AddAdditionalAmount(ctx, requestID, change.AmountCents); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying change amount")
			}
			req.AdditionalAmountCents += change.AmountCents
			accepted = true
		}

		ok, err = repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restoring request status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(req.Status.String())

	body := "The customer declined the price change."
	if accepted {
		body = "The customer accepted the price change."
	}
	notices := []Notice{
		notice(*req.LaundromatID, enums.NotifyEventChangeRequestUpdatedLndry,
			"Price change resolved", body, req),
	}
	if accepted {
		notices = append(notices, notice(req.CustomerID, enums.NotifyEventChangeConfirmUser,
			"Price updated", "The new price was applied to your order.", req))
	}
	s.publish(ctx, EventChangeResolved, req, notices)
	return req, nil
}

// CancelByCustomer is only legal while no driver holds the request.
// Outstanding offers are withdrawn and their holders told.
func (s *service) CancelByCustomer(ctx context.Context, requestID, customerID uuid.UUID) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	var withdrawn []uuid.UUID

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request belongs to another customer")
		}
		if req.DriverID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot cancel after a driver accepted")
		}

		next, err := NextStatus(req.Status, TriggerCancel)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "canceling request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next

		withdrawn, err = s.offers.WithTx(tx).PurgeAll(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "withdrawing open offers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(req.Status.String())

	notices := offerNotices(req, withdrawn, enums.NotifyEventRequestCancelled,
		"Request cancelled", "The customer cancelled this request.")
	if req.LaundromatID != nil {
		notices = append(notices, notice(*req.LaundromatID, enums.NotifyEventRequestCancelled,
			"Request cancelled", "The customer cancelled this request.", req))
	}
	s.publish(ctx, EventCanceled, req, notices)
	return req, nil
}

type assigneeKind int

const (
	assigneeDriver assigneeKind = iota
	assigneeLaundromat
)

// transitionByAssignee runs a single-status transition that only the
// assigned driver or laundromat may trigger.
func (s *service) transitionByAssignee(ctx context.Context, requestID, actorID uuid.UUID, kind assigneeKind, trig Trigger) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}

		switch kind {
		case assigneeDriver:
			if req.DriverID == nil || *req.DriverID != actorID {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "caller is not the assigned driver")
			}
		case assigneeLaundromat:
			if req.LaundromatID == nil || *req.LaundromatID != actorID {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "caller is not the assigned laundromat")
			}
		}

		next, err := NextStatus(req.Status, trig)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating request status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(req.Status.String())
	return req, nil
}

func pickupPoint(req *models.ServiceRequest) (float64, float64) {
	var lat, lng float64
	if req.PickupLat != nil {
		lat = *req.PickupLat
	}
	if req.PickupLng != nil {
		lng = *req.PickupLng
	}
	return lat, lng
}
