package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
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
	"github.com/naritchaphan/talad-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS store_settings (
  id TEXT PRIMARY KEY,
  store_name TEXT NOT NULL,
  announcement TEXT,
  is_open INTEGER NOT NULL DEFAULT 1,
  pickup_address TEXT,
  promptpay_id TEXT,
  delivery_base_fee_satang INTEGER NOT NULL DEFAULT 0,
  delivery_per_km_fee_satang INTEGER NOT NULL DEFAULT 0,
  free_delivery_minimum_satang INTEGER,
  categories TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
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
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  shipping_method TEXT NOT NULL,
  shipping_address TEXT,
  distance_km REAL,
  shipping_fee_satang INTEGER NOT NULL DEFAULT 0,
  subtotal_satang INTEGER NOT NULL,
  total_satang INTEGER NOT NULL,
  note TEXT,
  slip_object_key TEXT,
  transaction_ref TEXT,
  paid_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_satang INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  subtotal_satang INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
  id TEXT PRIMARY KEY,
  actor_user_id TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT,
  before TEXT,
  after TEXT,
  error_message TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedSettings(t *testing.T, db *gorm.DB, mutate func(*models.StoreSettings)) *models.StoreSettings {
	t.Helper()
	freeMin := 100000
	row := &models.StoreSettings{
		ID:                        uuid.New(),
		StoreName:                 "Talad",
		IsOpen:                    true,
		DeliveryBaseFeeSatang:     2000,
		DeliveryPerKmFeeSatang:    500,
		FreeDeliveryMinimumSatang: &freeMin,
	}
	if mutate != nil {
		mutate(row)
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return row
}

func seedProduct(t *testing.T, db *gorm.DB, priceSatang, stockQty int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Dried Chili 200g",
		PriceSatang: priceSatang,
		StockQty:    stockQty,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines map[uuid.UUID]int) *models.CartRecord {
	t.Helper()
	record := &models.CartRecord{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusActive,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for productID, qty := range lines {
		item := &models.CartItem{
			ID:              uuid.New(),
			CartID:          record.ID,
			ProductID:       productID,
			Qty:             qty,
			UnitPriceSatang: 1,
		}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return record
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	recorder, err := activity.NewRecorder(activity.NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Settings: settings.NewRepository(db),
		Products: products.NewRepository(db),
		Carts:    cart.NewRepository(db),
		Orders:   orders.NewRepository(db),
		Tx:       gormTxRunner{db: db},
		Recorder: recorder,
		Outbox:   outbox.NewService(outbox.NewRepository(db), nil),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func deliveryAddress() *types.ShippingAddress {
	return &types.ShippingAddress{
		RecipientName: "Somchai J.",
		Phone:         "0812345678",
		Line1:         "99/1 Moo 4",
		Subdistrict:   "Suthep",
		District:      "Mueang",
		Province:      "Chiang Mai",
		PostalCode:    "50200",
	}
}

func TestServiceQuotePricesDelivery(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, nil)
	product := seedProduct(t, db, 15000, 10)
	userID := uuid.New()
	seedCart(t, db, userID, map[uuid.UUID]int{product.ID: 2})
	svc := newTestService(t, db)

	distance := 3.4
	resp, err := svc.Quote(context.Background(), userID, QuoteRequest{
		ShippingMethod: "delivery",
		DistanceKm:     &distance,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if resp.SubtotalSatang != 30000 {
		t.Fatalf("unexpected subtotal %d", resp.SubtotalSatang)
	}
	// base 2000 + 4 started km * 500
	if resp.ShippingFeeSatang != 4000 {
		t.Fatalf("unexpected fee %d", resp.ShippingFeeSatang)
	}
	if resp.TotalSatang != 34000 {
		t.Fatalf("unexpected total %d", resp.TotalSatang)
	}
}

func TestServiceQuoteFreeDeliveryAndPickup(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, nil)
	product := seedProduct(t, db, 60000, 10)
	userID := uuid.New()
	seedCart(t, db, userID, map[uuid.UUID]int{product.ID: 2})
	svc := newTestService(t, db)
	ctx := context.Background()

	distance := 5.0
	resp, err := svc.Quote(ctx, userID, QuoteRequest{ShippingMethod: "delivery", DistanceKm: &distance})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if resp.ShippingFeeSatang != 0 || !resp.FreeDelivery {
		t.Fatalf("expected free delivery over threshold, got %+v", resp)
	}

	pickup, err := svc.Quote(ctx, userID, QuoteRequest{ShippingMethod: "pickup"})
	if err != nil {
		t.Fatalf("quote pickup: %v", err)
	}
	if pickup.ShippingFeeSatang != 0 || pickup.FreeDelivery {
		t.Fatalf("expected zero pickup fee without free flag, got %+v", pickup)
	}
}

func TestServiceQuoteDropsUnavailableLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, nil)
	good := seedProduct(t, db, 10000, 5)
	hidden := seedProduct(t, db, 8000, 5)
	if err := db.Model(&models.Product{}).Where("id = ?", hidden.ID).
		UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("hide product: %v", err)
	}
	userID := uuid.New()
	seedCart(t, db, userID, map[uuid.UUID]int{good.ID: 1, hidden.ID: 1})
	svc := newTestService(t, db)

	resp, err := svc.Quote(context.Background(), userID, QuoteRequest{ShippingMethod: "pickup"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(resp.Lines) != 1 || len(resp.DroppedLines) != 1 {
		t.Fatalf("expected one priced and one dropped line, got %+v", resp)
	}
	if resp.SubtotalSatang != 10000 {
		t.Fatalf("dropped line leaked into subtotal: %d", resp.SubtotalSatang)
	}
}

func TestServicePlaceOrderHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, nil)
	product := seedProduct(t, db, 15000, 10)
	userID := uuid.New()
	record := seedCart(t, db, userID, map[uuid.UUID]int{product.ID: 3})
	svc := newTestService(t, db)

	distance := 2.0
	dto, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		ShippingMethod:  "delivery",
		ShippingAddress: deliveryAddress(),
		DistanceKm:      &distance,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", dto.Status)
	}
	if dto.OrderNumber < 1001 {
		t.Fatalf("unexpected order number %d", dto.OrderNumber)
	}
	if dto.SubtotalSatang != 45000 || dto.ShippingFeeSatang != 3000 || dto.TotalSatang != 48000 {
		t.Fatalf("unexpected totals %+v", dto)
	}
	if len(dto.Items) != 1 || dto.Items[0].Qty != 3 {
		t.Fatalf("unexpected items %+v", dto.Items)
	}

	var stocked models.Product
	if err := db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stocked.StockQty != 7 {
		t.Fatalf("expected stock 7 after placement, got %d", stocked.StockQty)
	}

	var converted models.CartRecord
	if err := db.First(&converted, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if converted.Status != enums.CartStatusConverted || converted.ConvertedAt == nil {
		t.Fatalf("expected converted cart, got %+v", converted)
	}

	var activityRows int64
	if err := db.Model(&models.ActivityLog{}).
		Where("action = ?", enums.ActivityOrderPlaced).
		Count(&activityRows).Error; err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if activityRows != 1 {
		t.Fatalf("expected one order.placed activity row, got %d", activityRows)
	}

	var events int64
	if err := db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderPlaced, dto.ID).
		Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one order.placed event, got %d", events)
	}
}

func TestServicePlaceOrderRejectsClosedStore(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, func(s *models.StoreSettings) { s.IsOpen = false })
	product := seedProduct(t, db, 15000, 10)
	userID := uuid.New()
	seedCart(t, db, userID, map[uuid.UUID]int{product.ID: 1})
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{ShippingMethod: "pickup"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for closed store, got %v", err)
	}

	var failureRow models.ActivityLog
	if err := db.First(&failureRow, "action = ?", enums.ActivityOrderPlaceFailed).Error; err != nil {
		t.Fatalf("expected failure activity row: %v", err)
	}
	if failureRow.ErrorMessage == nil {
		t.Fatal("expected error message on failure row")
	}
}

func TestServicePlaceOrderRollsBackOnInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db, nil)
	plenty := seedProduct(t, db, 10000, 10)
	scarce := seedProduct(t, db, 5000, 1)
	userID := uuid.New()
	record := seedCart(t, db, userID, map[uuid.UUID]int{plenty.ID: 2, scarce.ID: 5})
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{ShippingMethod: "pickup"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for insufficient stock, got %v", err)
	}

	// Everything inside the transaction must have rolled back.
	for _, seeded := range []*models.Product{plenty, scarce} {
		var product models.Product
		if err := db.First(&product, "id = ?", seeded.ID).Error; err != nil {
			t.Fatalf("load product: %v", err)
		}
		if product.StockQty != seeded.StockQty {
			t.Fatalf("expected stock %d untouched, got %d", seeded.StockQty, product.StockQty)
		}
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order rows, got %d", orderCount)
	}

	var stillActive models.CartRecord
	if err := db.First(&stillActive, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if stillActive.Status != enums.CartStatusActive {
		t.Fatal("expected cart to stay active after rollback")
	}

	var failures int64
	if err := db.Model(&models.ActivityLog{}).
		Where("action = ?", enums.ActivityOrderPlaceFailed).
		Count(&failures).Error; err != nil {
		t.Fatalf("count failures: %v", err)
	}
	if failures != 1 {
		t.Fatalf("expected one failure row outside the transaction, got %d", failures)
	}
}

func TestServicePlaceOrderRequiresCompleteAddress(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderRequest{
		ShippingMethod:  "delivery",
		ShippingAddress: &types.ShippingAddress{RecipientName: "Somchai J."},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
