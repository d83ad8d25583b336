package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

// InventoryItemView is one acquired inventory link joined with its
// catalog snapshot. Name and image are empty when the catalog row is
// gone; the link itself survives catalog changes.
type InventoryItemView struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	SourceOrderID uuid.UUID `json:"source_order_id"`
	Name          string    `json:"name,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	AcquiredAt    time.Time `json:"acquired_at"`
}

// Service reads the inventory a buyer-seller accumulated through
// checkout.
type Service interface {
	// ListShopInventory returns the actor's shop inventory, newest first.
	ListShopInventory(ctx context.Context, actor types.Actor, limit int) ([]InventoryItemView, error)
}

type service struct {
	repo Repository
}

// NewService wires a product service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListShopInventory(ctx context.Context, actor types.Actor, limit int) ([]InventoryItemView, error) {
	if actor.ShopID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context required")
	}
	items, err := s.repo.ListInventoryByShop(ctx, *actor.ShopID, limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		catalog[row.ID] = row
	}

	views := make([]InventoryItemView, 0, len(items))
	for _, item := range items {
		view := InventoryItemView{
			ID:            item.ID,
			ProductID:     item.ProductID,
			SourceOrderID: item.SourceOrderID,
			AcquiredAt:    item.CreatedAt,
		}
		if product, ok := catalog[item.ProductID]; ok {
			view.Name = product.Name
			view.ImageURL = product.ImageURL
		}
		views = append(views, view)
	}
	return views, nil
}
