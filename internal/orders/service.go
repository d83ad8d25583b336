package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/mateoquiros/vendaria-backend/pkg/db"
	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/payloads"
	"github.com/mateoquiros/vendaria-backend/pkg/pagination"
	"github.com/mateoquiros/vendaria-backend/pkg/types"

	"github.com/mateoquiros/vendaria-backend/internal/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateInventoryItem(ctx context.Context, item *models.ShopInventoryItem) error
}

type checkoutSettler interface {
	SettleBalanceCheckout(ctx context.Context, tx *gorm.DB, order *models.Order, actor types.Actor) error
}

type sellerGate interface {
	CanSell(ctx context.Context, id uuid.UUID) (bool, error)
}

type shopLookup interface {
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
}

type addressPicker interface {
	PickAddress(ctx context.Context, currency enums.CryptoCurrency) (*models.CryptoAddress, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service assembles orders from validated carts and serves role-scoped reads.
type Service interface {
	Checkout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*OrderView, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListForShop(ctx context.Context, shopID uuid.UUID, params pagination.Params) (*OrderList, error)
	SetAdminNotes(ctx context.Context, orderID uuid.UUID, actor types.Actor, notes string) (*OrderView, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	products  productLoader
	resolver  payments.Resolver
	settler   checkoutSettler
	sellers   sellerGate
	shops     shopLookup
	addresses addressPicker
	outbox    outboxPublisher
	logg      *logger.Logger
}

// NewService builds the order assembler.
func NewService(
	tx txRunner,
	repo Repository,
	products productLoader,
	resolver payments.Resolver,
	settler checkoutSettler,
	sellers sellerGate,
	shops shopLookup,
	addresses addressPicker,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("payment resolver required")
	}
	if settler == nil {
		return nil, fmt.Errorf("settlement engine required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller gate required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop lookup required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address picker required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		products:  products,
		resolver:  resolver,
		settler:   settler,
		sellers:   sellers,
		shops:     shops,
		addresses: addresses,
		outbox:    publisher,
		logg:      logg,
	}, nil
}

func (s *service) Checkout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must be non-negative")
		}
	}
	if input.Shipping.IsNegative() || input.Tax.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping and tax must be non-negative")
	}

	address := input.Address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	total := subtotal.Add(input.Shipping).Add(input.Tax)

	resolution, err := s.resolver.Resolve(ctx, payments.ResolveInput{
		BuyerID:        buyerID,
		Method:         input.PaymentMethod,
		CryptoCurrency: input.CryptoCurrency,
		Total:          total,
		UseShopBalance: input.UseShopBalance,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadCatalog(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var depositAddress *string
	if resolution.Deferred && resolution.CryptoCurrency != nil {
		picked, err := s.addresses.PickAddress(ctx, *resolution.CryptoCurrency)
		if err != nil {
			return nil, err
		}
		depositAddress = &picked.Address
	}

	var created *models.Order
	persist := func(orderNumber string) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			order := &models.Order{
				ID:              uuid.New(),
				OrderNumber:     orderNumber,
				UserID:          buyerID,
				Status:          enums.OrderStatusPendingPayment,
				PaymentStatus:   enums.PaymentStatusPending,
				PaymentMethod:   resolution.Method,
				CryptoCurrency:  resolution.CryptoCurrency,
				PayerOwnerType:  resolution.PayerOwnerType,
				PayerOwnerID:    resolution.PayerOwnerID,
				Subtotal:        subtotal,
				Shipping:        input.Shipping,
				Tax:             input.Tax,
				Total:           total,
				ShippingAddress: address,
			}
			if _, err := repo.Create(ctx, order); err != nil {
				return err
			}

			items := make([]models.OrderItem, 0, len(input.Items))
			shopIDs := map[uuid.UUID]struct{}{}
			for _, line := range input.Items {
				product := catalog[line.ProductID]
				productID := line.ProductID
				items = append(items, models.OrderItem{
					ID:        uuid.New(),
					OrderID:   order.ID,
					ProductID: &productID,
					ShopID:    product.ShopID,
					Name:      product.Name,
					ImageURL:  product.ImageURL,
					UnitPrice: line.UnitPrice,
					Qty:       line.Qty,
					LineTotal: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))),
				})
				shopIDs[product.ShopID] = struct{}{}
			}
			if err := repo.CreateItems(ctx, items); err != nil {
				return err
			}
			order.Items = items

			if err := s.emitOrderCreated(ctx, tx, order, shopIDs); err != nil {
				return err
			}

			if !resolution.Deferred {
				if err := s.settler.SettleBalanceCheckout(ctx, tx, order, types.SystemActor()); err != nil {
					return err
				}
				order.Status = enums.OrderStatusPaid
				order.PaymentStatus = enums.PaymentStatusCompleted
			}

			created = order
			return nil
		})
	}

	err = persist(newOrderNumber())
	if err != nil && dbpkg.IsUniqueViolation(err, "order_number") {
		// One retry on an order number collision, never an overwrite.
		err = persist(newOrderNumber())
	}
	if err != nil {
		return nil, err
	}

	s.attachToShopInventory(ctx, buyerID, input, created)

	return &CheckoutResult{
		OrderID:        created.ID,
		OrderNumber:    created.OrderNumber,
		Status:         created.Status,
		DepositAddress: depositAddress,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return viewFor(order, actor)
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	rows, next, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: summarize(rows), NextCursor: next}, nil
}

func (s *service) ListForShop(ctx context.Context, shopID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	rows, next, err := s.repo.ListByShop(ctx, shopID, params)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: summarize(rows), NextCursor: next}, nil
}

// SetAdminNotes records or clears operator notes on an order. An empty
// string clears them. Notes never surface outside admin reads.
func (s *service) SetAdminNotes(ctx context.Context, orderID uuid.UUID, actor types.Actor, notes string) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	var value *string
	if notes != "" {
		value = &notes
	}
	applied, err := s.repo.SetAdminNotes(ctx, orderID, value)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.Get(ctx, orderID, actor)
}

func (s *service) loadCatalog(ctx context.Context, items []CheckoutItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		catalog[row.ID] = row
	}
	for _, id := range ids {
		product, ok := catalog[id]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", id)
		}
		if !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %q is no longer available", product.Name)
		}
	}
	return catalog, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, shopIDs map[uuid.UUID]struct{}) error {
	ids := make([]uuid.UUID, 0, len(shopIDs))
	for id := range shopIDs {
		ids = append(ids, id)
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.ActorRoleBuyer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			BuyerID:       order.UserID,
			PaymentMethod: order.PaymentMethod,
			Total:         order.Total,
			ShopIDs:       ids,
		},
	})
}

// attachToShopInventory links purchased items into the buyer's own shop
// after commit. Failures are logged and never affect the order.
func (s *service) attachToShopInventory(ctx context.Context, buyerID uuid.UUID, input CheckoutInput, order *models.Order) {
	if !input.AttachToShop || order == nil {
		return
	}
	allowed, err := s.sellers.CanSell(ctx, buyerID)
	if err != nil || !allowed {
		if err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "seller check failed for inventory attach")
		}
		return
	}
	shop, err := s.shops.GetByOwnerID(ctx, buyerID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "no shop found for inventory attach")
		}
		return
	}
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		err := s.products.CreateInventoryItem(ctx, &models.ShopInventoryItem{
			ID:            uuid.New(),
			ShopID:        shop.ID,
			ProductID:     *item.ProductID,
			SourceOrderID: order.ID,
		})
		if err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "inventory attach failed for item")
		}
	}
}

func viewFor(order *models.Order, actor types.Actor) (*OrderView, error) {
	isBuyer := order.UserID == actor.UserID
	isAdmin := actor.IsAdmin()
	ownsItems := false
	if actor.IsSeller() {
		for _, item := range order.Items {
			if item.ShopID == *actor.ShopID {
				ownsItems = true
				break
			}
		}
	}
	if !isBuyer && !isAdmin && !ownsItems {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to you")
	}

	view := &OrderView{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		BuyerID:        order.UserID,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		PaymentMethod:  order.PaymentMethod,
		CryptoCurrency: order.CryptoCurrency,
		Subtotal:       order.Subtotal,
		Shipping:       order.Shipping,
		Tax:            order.Tax,
		Total:          order.Total,
		Address:        order.ShippingAddress,
		TrackingNumber: order.TrackingNumber,
		PaidAt:         order.PaidAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		CreatedAt:      order.CreatedAt,
	}
	if isAdmin {
		view.AdminNotes = order.AdminNotes
	}

	for _, item := range order.Items {
		if !isBuyer && !isAdmin && item.ShopID != *actor.ShopID {
			continue
		}
		view.Items = append(view.Items, ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			ShopID:    item.ShopID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
			LineTotal: item.LineTotal,
		})
	}
	return view, nil
}

func newOrderNumber() string {
	return fmt.Sprintf("VND-%s-%06d", time.Now().UTC().Format("20060102"), rand.IntN(1000000))
}
