package types

import (
	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Actor identifies who is invoking an operation and under which role.
// ShopID is set for sellers acting on behalf of their shop.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	ShopID *uuid.UUID
}

// SystemActor is used for transitions applied by the platform itself,
// such as the synchronous settle at balance checkout.
func SystemActor() Actor {
	return Actor{UserID: uuid.Nil, Role: enums.ActorRoleSystem}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// IsSeller reports whether the actor holds the seller role with a shop context.
func (a Actor) IsSeller() bool {
	return a.Role == enums.ActorRoleSeller && a.ShopID != nil
}
