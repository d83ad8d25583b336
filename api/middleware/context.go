package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxRole    contextKey = "actor_role"
	ctxShopID  contextKey = "shop_id"
	ctxCanSell contextKey = "can_sell"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func ShopIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopID).(string); ok {
		return v
	}
	return ""
}

func CanSellFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxCanSell).(bool); ok {
		return v
	}
	return false
}

// ActorFromContext reconstructs the request actor seeded by the Auth
// middleware. Returns false when the context carries no parsable identity.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	role, err := enums.ParseActorRole(RoleFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	actor := types.Actor{UserID: userID, Role: role}
	if raw := ShopIDFromContext(ctx); raw != "" {
		if shopID, err := uuid.Parse(raw); err == nil {
			actor.ShopID = &shopID
		}
	}
	return actor, true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context for downstream handlers.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithShopID injects the shop identifier into the context for downstream handlers.
func WithShopID(ctx context.Context, shopID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShopID, shopID)
}
