package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/products"
	"github.com/naritchaphan/talad-backend/pkg/config"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL DEFAULT '',
  price_satang INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  converted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_satang INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, priceSatang, stockQty int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Jasmine Rice 5kg",
		Category:    "pantry",
		PriceSatang: priceSatang,
		StockQty:    stockQty,
		IsActive:    active,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		products.NewRepository(db),
		gormTxRunner{db: db},
		config.CheckoutConfig{MaxItemsPerCart: 3, MaxQtyPerItem: 10},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceGetOpensEmptyCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	dto, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.Items) != 0 || dto.SubtotalSatang != 0 {
		t.Fatalf("expected empty cart, got %+v", dto)
	}
}

func TestServicePutItemsSnapshotsPrices(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	product := seedProduct(t, db, 15000, 20, true)
	svc := newTestService(t, db)
	userID := uuid.New()

	dto, err := svc.PutItems(context.Background(), userID, PutItemsRequest{
		Items: []PutItemInput{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("put items: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(dto.Items))
	}
	line := dto.Items[0]
	if line.UnitPriceSatang != 15000 || line.LineTotalSatang != 30000 {
		t.Fatalf("unexpected price snapshot %+v", line)
	}
	if dto.SubtotalSatang != 30000 {
		t.Fatalf("unexpected subtotal %d", dto.SubtotalSatang)
	}
}

func TestServiceGetRefreshesStaleSnapshot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	product := seedProduct(t, db, 15000, 20, true)
	svc := newTestService(t, db)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.PutItems(ctx, userID, PutItemsRequest{
		Items: []PutItemInput{{ProductID: product.ID, Qty: 1}},
	}); err != nil {
		t.Fatalf("put items: %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("price_satang", 18000).Error; err != nil {
		t.Fatalf("reprice product: %v", err)
	}

	dto, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Items[0].UnitPriceSatang != 18000 {
		t.Fatalf("expected refreshed snapshot 18000, got %d", dto.Items[0].UnitPriceSatang)
	}

	var stored models.CartItem
	if err := db.First(&stored, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if stored.UnitPriceSatang != 18000 {
		t.Fatal("expected snapshot persisted")
	}
}

func TestServicePutItemsRejectsUnavailableProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	hidden := seedProduct(t, db, 9000, 5, false)
	svc := newTestService(t, db)

	_, err := svc.PutItems(context.Background(), uuid.New(), PutItemsRequest{
		Items: []PutItemInput{{ProductID: hidden.ID, Qty: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServicePutItemsEnforcesLimits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	product := seedProduct(t, db, 9000, 50, true)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.PutItems(ctx, uuid.New(), PutItemsRequest{
		Items: []PutItemInput{{ProductID: product.ID, Qty: 11}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected qty limit error, got %v", err)
	}

	items := make([]PutItemInput, 0, 4)
	for i := 0; i < 4; i++ {
		items = append(items, PutItemInput{ProductID: uuid.New(), Qty: 1})
	}
	_, err = svc.PutItems(ctx, uuid.New(), PutItemsRequest{Items: items})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected item count limit error, got %v", err)
	}
}

func TestServiceRemoveItemAndClear(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	first := seedProduct(t, db, 5000, 10, true)
	second := seedProduct(t, db, 7000, 10, true)
	svc := newTestService(t, db)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.PutItems(ctx, userID, PutItemsRequest{Items: []PutItemInput{
		{ProductID: first.ID, Qty: 1},
		{ProductID: second.ID, Qty: 2},
	}}); err != nil {
		t.Fatalf("put items: %v", err)
	}

	dto, err := svc.RemoveItem(ctx, userID, first.ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductID != second.ID {
		t.Fatalf("unexpected cart after remove %+v", dto)
	}

	if _, err := svc.RemoveItem(ctx, userID, first.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second remove, got %v", err)
	}

	if err := svc.Clear(ctx, userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	emptied, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(emptied.Items) != 0 {
		t.Fatalf("expected cleared cart, got %d items", len(emptied.Items))
	}
}
