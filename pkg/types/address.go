package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ShippingAddress is the address snapshot embedded on an order at checkout.
// It is denormalized: later edits to a buyer's saved addresses never alter
// historical orders.
type ShippingAddress struct {
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
}

var addressValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the minimum required fields (name, contact, street, city).
func (a ShippingAddress) Validate() error {
	return addressValidator.Struct(a)
}

// Normalize trims whitespace and defaults the country.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "US"
	}
	return a
}
