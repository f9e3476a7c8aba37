package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product, excluding soft-deleted rows.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDUnscoped loads the product including soft-deleted rows. The admin
// restore path needs to see what it is restoring.
func (r *Repository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads a batch of products, excluding soft-deleted rows.
// Callers must handle IDs that come back missing.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// LockForUpdate loads one product under FOR UPDATE inside tx. Checkout
// decrements stock only through this path. FOR UPDATE is postgres-only;
// other dialects fall back to a plain read.
func (r *Repository) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Save persists the mutated product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SoftDelete marks the product deleted. Existing order items keep their
// snapshots; the product simply disappears from the catalog.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// Restore clears the soft-delete marker.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("deleted_at", nil).Error
}

// AddStock increments stock, including soft-deleted rows, so a cancelled
// order can always return its units.
func (r *Repository) AddStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error
}

// UpdateStock sets the absolute stock quantity.
func (r *Repository) UpdateStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_qty", qty).Error
}

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Category       *string
	Search         *string
	IncludeHidden  bool
	IncludeDeleted bool
}

// ListResult carries one catalog page plus the next cursor.
type ListResult struct {
	Products   []models.Product
	NextCursor string
}

// List returns products newest-first with cursor pagination. The public
// catalog sets neither include flag, so hidden and deleted rows stay out.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.IncludeDeleted {
		query = query.Unscoped()
	}
	if !filters.IncludeHidden {
		query = query.Where("is_active = ?", true)
	}
	if filters.Category != nil && strings.TrimSpace(*filters.Category) != "" {
		query = query.Where("category = ?", strings.TrimSpace(*filters.Category))
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		term := "%" + strings.TrimSpace(*filters.Search) + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", term, term)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := &ListResult{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	result.Products = rows
	return result, nil
}

// Categories returns the distinct categories of visible products.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Where("category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}
