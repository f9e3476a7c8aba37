package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
)

// Repository reads and mutates the store_settings singleton row.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a settings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Get loads the singleton row.
func (r *Repository) Get(ctx context.Context) (*models.StoreSettings, error) {
	var row models.StoreSettings
	if err := r.db.WithContext(ctx).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetForUpdate loads the singleton row under a write lock. Checkout calls
// this first inside its transaction so an admin closing the store blocks
// until in-flight orders commit, and new orders see the flip. FOR UPDATE is
// postgres-only; other dialects fall back to a plain read.
func (r *Repository) GetForUpdate(ctx context.Context) (*models.StoreSettings, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.StoreSettings
	if err := query.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Save persists the mutated singleton.
func (r *Repository) Save(ctx context.Context, row *models.StoreSettings) error {
	return r.db.WithContext(ctx).Save(row).Error
}
