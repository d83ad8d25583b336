package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/api/responses"
	"github.com/mateoquiros/vendaria-backend/api/validators"
	"github.com/mateoquiros/vendaria-backend/internal/cryptoaddrs"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
)

// ListCryptoAddresses returns every configured receiving address,
// active or not.
func ListCryptoAddresses(svc cryptoaddrs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "crypto address service unavailable"))
			return
		}

		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type createCryptoAddressRequest struct {
	Currency string  `json:"currency" validate:"required"`
	Address  string  `json:"address" validate:"required,min=10,max=128"`
	Label    *string `json:"label,omitempty" validate:"omitempty,max=100"`
}

// CreateCryptoAddress registers a platform receiving address. New
// addresses join the active pick pool immediately.
func CreateCryptoAddress(svc cryptoaddrs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "crypto address service unavailable"))
			return
		}

		var payload createCryptoAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCryptoCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		var label *string
		if payload.Label != nil {
			clean := validators.SanitizeString(*payload.Label, 100)
			label = &clean
		}

		created, err := svc.Create(r.Context(), cryptoaddrs.CreateAddressInput{
			Currency: currency,
			Address:  validators.SanitizeString(payload.Address, 128),
			Label:    label,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, created)
	}
}

type setAddressActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type setAddressActiveResponse struct {
	ID     uuid.UUID `json:"id"`
	Active bool      `json:"active"`
}

// SetCryptoAddressActive toggles an address in or out of the pick pool.
func SetCryptoAddressActive(svc cryptoaddrs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "crypto address service unavailable"))
			return
		}

		addressID, err := uuidURLParam(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setAddressActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), addressID, *payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setAddressActiveResponse{ID: addressID, Active: *payload.Active})
	}
}
