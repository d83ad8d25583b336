package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	ShopID  *uuid.UUID
	Role    enums.ActorRole
	CanSell bool
	JTI     string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID  uuid.UUID       `json:"user_id"`
	ShopID  *uuid.UUID      `json:"shop_id,omitempty"`
	Role    enums.ActorRole `json:"role"`
	CanSell bool            `json:"can_sell,omitempty"`
	jwt.RegisteredClaims
}
