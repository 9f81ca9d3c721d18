package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/api/responses"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

const (
	userIDHeader = "X-User-Id"
	roleHeader   = "X-User-Role"
)

// Identity resolves the acting user from trusted gateway headers and
// rejects requests that carry no usable identity.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get(userIDHeader)
			if rawID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "missing user identity header").
						WithDetails(map[string]string{"header": userIDHeader}))
				return
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed user identity header").
						WithDetails(map[string]string{"header": userIDHeader}))
				return
			}

			role, err := enums.ParseUserRole(r.Header.Get(roleHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed user role header").
						WithDetails(map[string]string{"header": roleHeader}))
				return
			}

			ctx := WithIdentity(r.Context(), userID, role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": userID.String(),
					"role":    role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
