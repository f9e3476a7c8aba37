package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/pkg/config"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

// Service manages the single active cart each customer owns.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	PutItems(ctx context.Context, userID uuid.UUID, req PutItemsRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	repo     *Repository
	products productCatalog
	tx       txRunner
	limits   config.CheckoutConfig
}

// NewService constructs the cart service.
func NewService(repo *Repository, products productCatalog, tx txRunner, limits config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, products: products, tx: tx, limits: limits}, nil
}

// Get returns the active cart, opening an empty one on first touch.
// Price snapshots are refreshed against the live catalog so the customer
// never checks out on a stale price.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildDTO(ctx, cart, true)
}

// PutItems replaces the cart contents with the requested lines.
func (s *service) PutItems(ctx context.Context, userID uuid.UUID, req PutItemsRequest) (*CartDTO, error) {
	if len(req.Items) > s.limits.MaxItemsPerCart {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cart cannot hold more than %d items", s.limits.MaxItemsPerCart))
	}
	seen := make(map[uuid.UUID]bool, len(req.Items))
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Qty > s.limits.MaxQtyPerItem {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity per item cannot exceed %d", s.limits.MaxQtyPerItem))
		}
		if seen[item.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart items")
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := catalog[item.ProductID]
		if !ok || !product.Purchasable() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is not available", item.ProductID))
		}
		rows = append(rows, models.CartItem{
			ID:              uuid.New(),
			CartID:          cart.ID,
			ProductID:       item.ProductID,
			Qty:             item.Qty,
			UnitPriceSatang: product.PriceSatang,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceItems(ctx, cart.ID, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace cart items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cart.Items = rows
	return s.buildDTO(ctx, cart, false)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.RemoveItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return s.buildDTO(ctx, cart, false)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

func (s *service) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart, err = s.repo.CreateActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return cart, nil
}

// buildDTO resolves products for every line. With refresh set, stale price
// snapshots are rewritten in place.
func (s *service) buildDTO(ctx context.Context, cart *models.CartRecord, refresh bool) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	dto := &CartDTO{ID: cart.ID, Items: make([]CartItemDTO, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := CartItemDTO{
			ProductID:       item.ProductID,
			Qty:             item.Qty,
			UnitPriceSatang: item.UnitPriceSatang,
		}
		if product, ok := catalog[item.ProductID]; ok {
			line.Name = product.Name
			line.ImageURL = product.ImageURL
			line.StockQty = product.StockQty
			line.Available = product.Purchasable()
			if refresh && product.PriceSatang != item.UnitPriceSatang {
				if err := s.repo.UpdateItemPrice(ctx, item.ID, product.PriceSatang); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: refresh price snapshot")
				}
				line.UnitPriceSatang = product.PriceSatang
			}
		}
		line.LineTotalSatang = line.UnitPriceSatang * line.Qty
		if line.Available {
			dto.SubtotalSatang += line.LineTotalSatang
		}
		dto.Items = append(dto.Items, line)
	}
	return dto, nil
}
