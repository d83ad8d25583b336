package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/api/responses"
	"github.com/mateoquiros/vendaria-backend/api/validators"
	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

type balanceResponse struct {
	OwnerType enums.LedgerOwnerType `json:"owner_type"`
	OwnerID   uuid.UUID             `json:"owner_id"`
	Amount    decimal.Decimal       `json:"amount"`
}

// GetBalance returns the caller's balance pool. Sellers may request their
// shop pool with scope=shop.
func GetBalance(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerType, ownerID, err := balanceOwner(r, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := svc.Get(r.Context(), ownerType, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceResponse{OwnerType: ownerType, OwnerID: ownerID, Amount: amount})
	}
}

// BalanceHistory returns recent ledger entries for the caller's pool.
func BalanceHistory(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerType, ownerID, err := balanceOwner(r, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), ownerType, ownerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func balanceOwner(r *http.Request, actor types.Actor) (enums.LedgerOwnerType, uuid.UUID, error) {
	scope := strings.TrimSpace(r.URL.Query().Get("scope"))
	switch scope {
	case "", "user":
		return enums.LedgerOwnerUser, actor.UserID, nil
	case "shop":
		if actor.ShopID == nil {
			return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context required")
		}
		return enums.LedgerOwnerShop, *actor.ShopID, nil
	default:
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "scope must be user or shop")
	}
}
