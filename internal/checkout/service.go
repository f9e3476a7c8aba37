package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/internal/cart"
	"github.com/naritchaphan/talad-backend/internal/orders"
	"github.com/naritchaphan/talad-backend/internal/products"
	"github.com/naritchaphan/talad-backend/internal/settings"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/outbox"
)

// Service prices carts and turns them into orders.
type Service interface {
	Quote(ctx context.Context, userID uuid.UUID, req QuoteRequest) (*QuoteResponse, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*orders.OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	settings *settings.Repository
	products *products.Repository
	carts    *cart.Repository
	orders   *orders.Repository
	tx       txRunner
	recorder *activity.Recorder
	outbox   *outbox.Service
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Settings *settings.Repository
	Products *products.Repository
	Carts    *cart.Repository
	Orders   *orders.Repository
	Tx       txRunner
	Recorder *activity.Recorder
	Outbox   *outbox.Service
}

// NewService constructs the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		settings: params.Settings,
		products: params.Products,
		carts:    params.Carts,
		orders:   params.Orders,
		tx:       params.Tx,
		recorder: params.Recorder,
		outbox:   params.Outbox,
	}, nil
}

// Quote prices the active cart without touching stock. Lines whose product
// went inactive or out of catalog are reported separately so the client can
// surface them before checkout fails.
func (s *service) Quote(ctx context.Context, userID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	method, err := enums.ParseShippingMethod(req.ShippingMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse shipping method")
	}

	storeSettings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}

	userCart, err := s.carts.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	resp := &QuoteResponse{ShippingMethod: method}
	for _, item := range userCart.Items {
		product, ok := catalog[item.ProductID]
		line := QuoteLine{
			ProductID: item.ProductID.String(),
			Qty:       item.Qty,
		}
		if !ok || !product.Purchasable() {
			line.Name = "(unavailable)"
			if ok {
				line.Name = product.Name
			}
			resp.DroppedLines = append(resp.DroppedLines, line)
			continue
		}
		line.Name = product.Name
		line.UnitPriceSatang = product.PriceSatang
		line.SubtotalSatang = product.PriceSatang * item.Qty
		resp.Lines = append(resp.Lines, line)
		resp.SubtotalSatang += line.SubtotalSatang
	}
	if len(resp.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no purchasable items in cart")
	}

	distance := 0.0
	if req.DistanceKm != nil {
		distance = *req.DistanceKm
	}
	resp.ShippingFeeSatang, resp.FreeDelivery = deliveryFeeSatang(storeSettings, method, distance, resp.SubtotalSatang)
	resp.TotalSatang = resp.SubtotalSatang + resp.ShippingFeeSatang
	return resp, nil
}

// PlaceOrder converts the active cart into a pending order in a single
// transaction. Stock is decremented under per-product row locks; any
// failure rolls the whole order back and leaves a failure row in the
// activity log.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*orders.OrderDTO, error) {
	method, err := enums.ParseShippingMethod(req.ShippingMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse shipping method")
	}
	if method == enums.ShippingMethodDelivery {
		if req.ShippingAddress == nil || !req.ShippingAddress.Complete() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery requires a complete shipping address")
		}
	}

	var placed *orders.OrderDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txSettings := s.settings.WithTx(tx)
		txProducts := s.products.WithTx(tx)
		txCarts := s.carts.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		storeSettings, err := txSettings.GetForUpdate(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock settings")
		}
		if !storeSettings.IsOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "store is closed")
		}

		userCart, err := txCarts.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Lock products in a stable order so two concurrent checkouts
		// sharing items cannot deadlock.
		items := make([]models.CartItem, len(userCart.Items))
		copy(items, userCart.Items)
		sort.Slice(items, func(i, j int) bool {
			return items[i].ProductID.String() < items[j].ProductID.String()
		})

		subtotal := 0
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product, err := txProducts.LockForUpdate(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("product %s is no longer available", item.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
			}
			if !product.Purchasable() {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("product %s is no longer available", product.Name))
			}
			if product.StockQty < item.Qty {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("insufficient stock for %s", product.Name))
			}
			if err := txProducts.UpdateStock(ctx, product.ID, product.StockQty-item.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}

			lineSubtotal := product.PriceSatang * item.Qty
			subtotal += lineSubtotal
			orderItems = append(orderItems, models.OrderItem{
				ID:              uuid.New(),
				ProductID:       product.ID,
				Name:            product.Name,
				UnitPriceSatang: product.PriceSatang,
				Qty:             item.Qty,
				SubtotalSatang:  lineSubtotal,
			})
		}

		distance := 0.0
		if req.DistanceKm != nil {
			distance = *req.DistanceKm
		}
		fee, _ := deliveryFeeSatang(storeSettings, method, distance, subtotal)

		number, err := txOrders.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: next order number")
		}

		order := &models.Order{
			ID:                uuid.New(),
			OrderNumber:       number,
			UserID:            userID,
			Status:            enums.OrderStatusPending,
			ShippingMethod:    method,
			ShippingAddress:   req.ShippingAddress,
			DistanceKm:        req.DistanceKm,
			ShippingFeeSatang: fee,
			SubtotalSatang:    subtotal,
			TotalSatang:       subtotal + fee,
			Note:              req.Note,
			Items:             orderItems,
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := txOrders.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
		}

		if err := txCarts.MarkConverted(ctx, userCart.ID, time.Now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: convert cart")
		}

		placed = orders.ToDTO(order)
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &userID,
			Action:      enums.ActivityOrderPlaced,
			EntityType:  "order",
			EntityID:    &order.ID,
			After:       placed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record placement")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
			Data:          placed,
			Version:       1,
		})
	})
	if err != nil {
		// The transaction is already rolled back; the failure row must
		// survive it, so it goes in on its own connection.
		message := err.Error()
		s.recorder.RecordOrLog(ctx, nil, activity.Entry{
			ActorUserID:  &userID,
			Action:       enums.ActivityOrderPlaceFailed,
			EntityType:   "order",
			ErrorMessage: &message,
		})
		return nil, err
	}
	return placed, nil
}
