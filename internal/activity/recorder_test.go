package activity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:activity_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS activity_logs (
  id TEXT PRIMARY KEY,
  actor_user_id TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT,
  before TEXT,
  after TEXT,
  error_message TEXT,
  created_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create activity_logs: %v", err)
	}
	return db
}

func TestRecorderWritesWithinTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	recorder, err := NewRecorder(NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	ctx := context.Background()
	actor := uuid.New()
	entity := uuid.New()

	err = db.Transaction(func(tx *gorm.DB) error {
		return recorder.Record(ctx, tx, Entry{
			ActorUserID: &actor,
			Action:      enums.ActivityProductCreated,
			EntityType:  "product",
			EntityID:    &entity,
			After:       map[string]any{"name": "Mango Sticky Rice"},
		})
	})
	if err != nil {
		t.Fatalf("record in tx: %v", err)
	}

	var row models.ActivityLog
	if err := db.First(&row, "entity_id = ?", entity).Error; err != nil {
		t.Fatalf("load activity row: %v", err)
	}
	if row.Action != enums.ActivityProductCreated {
		t.Fatalf("unexpected action %s", row.Action)
	}
	if len(row.After) == 0 {
		t.Fatal("expected after snapshot to be stored")
	}
}

func TestRecorderRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	recorder, err := NewRecorder(NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	ctx := context.Background()
	entity := uuid.New()

	_ = db.Transaction(func(tx *gorm.DB) error {
		if err := recorder.Record(ctx, tx, Entry{
			Action:     enums.ActivityOrderPlaced,
			EntityType: "order",
			EntityID:   &entity,
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
		return gorm.ErrInvalidData
	})

	var count int64
	if err := db.Model(&models.ActivityLog{}).Where("entity_id = ?", entity).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard the row, found %d", count)
	}
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := &models.ActivityLog{
			ID:         uuid.New(),
			Action:     enums.ActivityOrderPlaced,
			EntityType: "order",
		}
		if err := repo.Insert(ctx, entry); err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}
	if err := repo.Insert(ctx, &models.ActivityLog{
		ID:         uuid.New(),
		Action:     enums.ActivityProductCreated,
		EntityType: "product",
	}); err != nil {
		t.Fatalf("seed product row: %v", err)
	}

	action := enums.ActivityOrderPlaced
	page, err := repo.List(ctx, pagination.Params{Limit: 3}, ListFilters{Action: &action})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Entries) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page.Entries))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor for remaining rows")
	}

	rest, err := repo.List(ctx, pagination.Params{Limit: 3, Cursor: page.NextCursor}, ListFilters{Action: &action})
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(rest.Entries) != 2 {
		t.Fatalf("expected 2 remaining rows, got %d", len(rest.Entries))
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected empty cursor on final page, got %s", rest.NextCursor)
	}
}
