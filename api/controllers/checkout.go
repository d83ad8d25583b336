package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/api/responses"
	"github.com/mateoquiros/vendaria-backend/api/validators"
	orderssvc "github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

type checkoutItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Qty       int             `json:"qty" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type checkoutRequest struct {
	Items          []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	Address        types.ShippingAddress `json:"address" validate:"required"`
	PaymentMethod  string                `json:"payment_method" validate:"required"`
	CryptoCurrency *string               `json:"crypto_currency,omitempty"`
	UseShopBalance bool                  `json:"use_shop_balance,omitempty"`
	Shipping       decimal.Decimal       `json:"shipping"`
	Tax            decimal.Decimal       `json:"tax"`
	AttachToShop   bool                  `json:"attach_to_shop,omitempty"`
}

// Checkout freezes the submitted cart into an order and, for balance
// payments, settles it synchronously.
func Checkout(svc orderssvc.Service, commerce *metrics.CommerceMetrics, logg *logger.Logger) http.HandlerFunc {
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

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCheckoutInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		started := time.Now()
		result, err := svc.Checkout(r.Context(), actor.UserID, input)
		if commerce != nil {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			commerce.ObserveCheckout(string(input.PaymentMethod), outcome, time.Since(started))
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func buildCheckoutInput(payload checkoutRequest) (orderssvc.CheckoutInput, error) {
	method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
	if err != nil {
		return orderssvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	input := orderssvc.CheckoutInput{
		Address:        payload.Address,
		PaymentMethod:  method,
		UseShopBalance: payload.UseShopBalance,
		Shipping:       payload.Shipping,
		Tax:            payload.Tax,
		AttachToShop:   payload.AttachToShop,
	}

	if payload.CryptoCurrency != nil {
		currency, err := enums.ParseCryptoCurrency(*payload.CryptoCurrency)
		if err != nil {
			return orderssvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid crypto currency")
		}
		input.CryptoCurrency = &currency
	}

	input.Items = make([]orderssvc.CheckoutItemInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		productID, err := parseUUIDField(item.ProductID, "product_id")
		if err != nil {
			return orderssvc.CheckoutInput{}, err
		}
		input.Items = append(input.Items, orderssvc.CheckoutItemInput{
			ProductID: productID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return input, nil
}
