package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/api/middleware"
	"github.com/freshfold/freshfold-backend/api/responses"
	"github.com/freshfold/freshfold-backend/api/validators"
	"github.com/freshfold/freshfold-backend/internal/requests"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

const maxInstructionsLen = 500

type createRequestBody struct {
	AddressID    *uuid.UUID `json:"address_id"`
	PickupLat    float64    `json:"pickup_lat" validate:"min=-90,max=90"`
	PickupLng    float64    `json:"pickup_lng" validate:"min=-180,max=180"`
	DeliveryType string     `json:"delivery_type" validate:"required"`
	ServiceType  string     `json:"service_type" validate:"required"`

	WeightKg     float64 `json:"weight_kg" validate:"required,gt=0"`
	BagCount     int     `json:"bag_count" validate:"required,min=1"`
	Express      bool    `json:"express"`
	Fragrance    bool    `json:"fragrance"`
	Instructions *string `json:"instructions"`

	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
	FeesCents   int64 `json:"fees_cents" validate:"min=0"`
	TaxCents    int64 `json:"tax_cents" validate:"min=0"`

	PaymentMethodID string `json:"payment_method_id"`
}

type updateRequestBody struct {
	WeightKg     *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	BagCount     *int     `json:"bag_count" validate:"omitempty,min=1"`
	Express      *bool    `json:"express"`
	Fragrance    *bool    `json:"fragrance"`
	Instructions *string  `json:"instructions"`
	AmountCents  *int64   `json:"amount_cents" validate:"omitempty,gt=0"`
}

type assignLaundromatsBody struct {
	LaundromatIDs []uuid.UUID `json:"laundromat_ids" validate:"required,min=1,max=10"`
}

type changeRequestBody struct {
	AmountCents int64   `json:"amount_cents" validate:"required,gt=0"`
	Reason      *string `json:"reason"`
}

type resolveChangeBody struct {
	Resolution string `json:"resolution" validate:"required"`
}

type tipBody struct {
	AmountCents     int64  `json:"amount_cents" validate:"required,gt=0"`
	PaymentMethodID string `json:"payment_method_id"`
}

func requestIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "requestID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id")
	}
	return id, nil
}

// CreateRequest opens a new service request for the authenticated customer
// and kicks off the first dispatch round.
func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryType, err := enums.ParseDeliveryType(body.DeliveryType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}
		serviceType, err := enums.ParseServiceType(body.ServiceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service type"))
			return
		}

		if body.Instructions != nil {
			trimmed := validators.SanitizeString(*body.Instructions, maxInstructionsLen)
			body.Instructions = &trimmed
		}

		req, err := svc.CreateRequest(r.Context(), requests.CreateRequestInput{
			CustomerID:      middleware.UserIDFromContext(r.Context()),
			AddressID:       body.AddressID,
			PickupLat:       body.PickupLat,
			PickupLng:       body.PickupLng,
			DeliveryType:    deliveryType,
			ServiceType:     serviceType,
			WeightKg:        body.WeightKg,
			BagCount:        body.BagCount,
			Express:         body.Express,
			Fragrance:       body.Fragrance,
			Instructions:    body.Instructions,
			AmountCents:     body.AmountCents,
			FeesCents:       body.FeesCents,
			TaxCents:        body.TaxCents,
			PaymentMethodID: body.PaymentMethodID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.GetRequest(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// ListRequests pages through the requests visible to the acting user. The
// role decides which assignment column scopes the query.
func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		items, total, err := svc.ListRequests(ctx, middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx), limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":  items,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func UpdateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Instructions != nil {
			trimmed := validators.SanitizeString(*body.Instructions, maxInstructionsLen)
			body.Instructions = &trimmed
		}

		req, err := svc.UpdateRequest(r.Context(), id, middleware.UserIDFromContext(r.Context()), requests.UpdateRequestInput{
			WeightKg:     body.WeightKg,
			BagCount:     body.BagCount,
			Express:      body.Express,
			Fragrance:    body.Fragrance,
			Instructions: body.Instructions,
			AmountCents:  body.AmountCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// actorAction adapts the accept/reject/confirm family, which all share the
// (requestID, actorID) shape.
func actorAction(
	logg *logger.Logger,
	call func(r *http.Request, requestID, actorID uuid.UUID) (any, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := call(r, id, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AcceptAsDriver(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.AcceptAsDriver(r.Context(), requestID, actorID)
	})
}

func RejectAsDriver(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.RejectAsDriver(r.Context(), requestID, actorID)
	})
}

func AcceptAsLaundromat(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.AcceptAsLaundromat(r.Context(), requestID, actorID)
	})
}

func RejectAsLaundromat(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.RejectAsLaundromat(r.Context(), requestID, actorID)
	})
}

func ConfirmByDriver(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.ConfirmByDriver(r.Context(), requestID, actorID)
	})
}

func ConfirmByLaundromat(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.ConfirmByLaundromat(r.Context(), requestID, actorID)
	})
}

// AssignToLaundromat lets the customer hand the request to laundromats of
// their choosing instead of waiting on the radius search.
func AssignToLaundromat(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body assignLaundromatsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.AssignToLaundromat(r.Context(), id, body.LaundromatIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func CreateChangeRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body changeRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.CreateChangeRequest(r.Context(), id, middleware.UserIDFromContext(r.Context()), body.AmountCents, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func ResolveChangeRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body resolveChangeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resolution, err := enums.ParseChangeRequestStatus(body.Resolution)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resolution"))
			return
		}
		req, err := svc.ResolveChangeRequest(r.Context(), id, middleware.UserIDFromContext(r.Context()), resolution)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func ReadyForPickup(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.ReadyForPickup(r.Context(), requestID, actorID)
	})
}

func ConfirmPickup(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.ConfirmPickup(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func StartDelivery(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.StartDelivery(r.Context(), requestID, actorID)
	})
}

func ConfirmDelivery(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.ConfirmDelivery(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func CancelRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(logg, func(r *http.Request, requestID, actorID uuid.UUID) (any, error) {
		return svc.CancelByCustomer(r.Context(), requestID, actorID)
	})
}

func SendTip(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body tipBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.SendTip(r.Context(), id, middleware.UserIDFromContext(r.Context()), body.AmountCents, body.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
