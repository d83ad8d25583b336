package controllers

import (
	"net/http"

	"github.com/mateoquiros/vendaria-backend/api/responses"
	"github.com/mateoquiros/vendaria-backend/api/validators"
	orderssvc "github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/settlement"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
)

// ApprovePayment confirms a deferred crypto payment after the operator
// verifies the on-chain transfer.
func ApprovePayment(svc settlement.Service, commerce *metrics.CommerceMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ApprovePayment(r.Context(), orderID, actor)
		if commerce != nil {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			commerce.IncSettlement("approve_payment", outcome)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,min=1,max=100"`
}

// UpdateOrderStatus advances the fulfillment lifecycle. Role gating and
// transition legality live in the settlement service; the same handler
// serves sellers and admins.
func UpdateOrderStatus(svc settlement.Service, commerce *metrics.CommerceMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), settlement.UpdateStatusInput{
			OrderID:        orderID,
			Actor:          actor,
			NewStatus:      status,
			TrackingNumber: payload.TrackingNumber,
		})
		if commerce != nil {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			commerce.IncSettlement("update_status", outcome)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type refundRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RefundOrder reverses a settled order. Balance refunds credit the payer
// pool; crypto refunds are flagged for manual reconciliation.
func RefundOrder(svc settlement.Service, commerce *metrics.CommerceMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Refund(r.Context(), orderID, actor, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if commerce != nil {
			commerce.IncRefund(string(order.PaymentMethod))
		}
		responses.WriteSuccess(w, order)
	}
}

type adminNotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// SetAdminNotes records operator notes on an order. An empty notes value
// clears them.
func SetAdminNotes(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminNotesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetAdminNotes(r.Context(), orderID, actor, validators.SanitizeString(payload.Notes, 2000))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// OrderTransitions returns the append-only audit trail for an order.
func OrderTransitions(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transitions, err := svc.Transitions(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transitions)
	}
}
