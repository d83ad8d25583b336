package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/api/responses"
	"github.com/mateoquiros/vendaria-backend/api/validators"
	"github.com/mateoquiros/vendaria-backend/internal/users"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
)

type sellingPermissionRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type sellingPermissionResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	CanSell bool      `json:"can_sell"`
}

// SetSellingPermission grants or revokes a user's per-account selling
// grant. The platform-wide selling flag is configuration, not an API.
func SetSellingPermission(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := uuidURLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sellingPermissionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if *payload.Enabled {
			err = svc.GrantSelling(r.Context(), userID)
		} else {
			err = svc.RevokeSelling(r.Context(), userID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellingPermissionResponse{UserID: userID, CanSell: *payload.Enabled})
	}
}
