package controllers

import (
	"net/http"

	"github.com/freshfold/freshfold-backend/api/middleware"
	"github.com/freshfold/freshfold-backend/api/responses"
	"github.com/freshfold/freshfold-backend/api/validators"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

type driverLocationBody struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type pushTokenBody struct {
	Token *string `json:"token"`
}

// UpdateDriverLocation records the driver's live position for the matcher.
func UpdateDriverLocation(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body driverLocationBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID := middleware.UserIDFromContext(r.Context())
		if err := svc.UpdateDriverLocation(r.Context(), driverID, body.Lat, body.Lng); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "recorded"})
	}
}

// RegisterPushToken stores or clears the caller's device token. A null token
// opts the device out of push delivery.
func RegisterPushToken(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body pushTokenBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.RegisterPushToken(r.Context(), userID, body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
