package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
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
	dsn := "file:settings_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedSettings(t *testing.T, db *gorm.DB) *models.StoreSettings {
	t.Helper()
	row := &models.StoreSettings{
		ID:        uuid.New(),
		StoreName: "Talad",
		IsOpen:    true,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return row
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	recorder, err := activity.NewRecorder(activity.NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, recorder)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceUpdateAppliesPartialChanges(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db)
	svc := newTestService(t, db)
	actor := uuid.New()

	fee := 2500
	name := "Talad Baan Suan"
	dto, err := svc.Update(context.Background(), actor, UpdateSettingsInput{
		StoreName:             &name,
		DeliveryBaseFeeSatang: &fee,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.StoreName != name {
		t.Fatalf("expected store name %q, got %q", name, dto.StoreName)
	}
	if dto.DeliveryBaseFeeSatang != fee {
		t.Fatalf("expected base fee %d, got %d", fee, dto.DeliveryBaseFeeSatang)
	}
	if !dto.IsOpen {
		t.Fatal("expected untouched is_open to stay true")
	}

	var logged models.ActivityLog
	if err := db.First(&logged, "action = ?", enums.ActivitySettingsUpdated).Error; err != nil {
		t.Fatalf("expected settings_updated activity row: %v", err)
	}
	if logged.ActorUserID == nil || *logged.ActorUserID != actor {
		t.Fatal("expected actor recorded on activity row")
	}
}

func TestServiceUpdateStoreCloseRecordsAction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db)
	svc := newTestService(t, db)

	closed := false
	if _, err := svc.Update(context.Background(), uuid.New(), UpdateSettingsInput{IsOpen: &closed}); err != nil {
		t.Fatalf("update: %v", err)
	}

	var count int64
	if err := db.Model(&models.ActivityLog{}).Where("action = ?", enums.ActivityStoreClosed).Count(&count).Error; err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one store.closed row, got %d", count)
	}
}

func TestServiceUpdateRejectsNegativeFee(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedSettings(t, db)
	svc := newTestService(t, db)

	bad := -1
	_, err := svc.Update(context.Background(), uuid.New(), UpdateSettingsInput{DeliveryBaseFeeSatang: &bad})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	row := &models.StoreSettings{}
	if err := db.First(row).Error; err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if row.DeliveryBaseFeeSatang != 0 {
		t.Fatal("expected rollback to keep fee unchanged")
	}
}

func TestServiceGetPublicOmitsPromptPay(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	row := seedSettings(t, db)
	promptpay := "0891234567"
	row.PromptPayID = &promptpay
	if err := db.Save(row).Error; err != nil {
		t.Fatalf("save settings: %v", err)
	}
	svc := newTestService(t, db)

	pub, err := svc.GetPublic(context.Background())
	if err != nil {
		t.Fatalf("get public: %v", err)
	}
	if pub.StoreName != "Talad" {
		t.Fatalf("unexpected store name %q", pub.StoreName)
	}
}
