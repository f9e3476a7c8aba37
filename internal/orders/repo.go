package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// Repository persists orders and their item snapshots.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// NextOrderNumber reserves the next human-facing order number. Postgres
// draws from a sequence; other dialects fall back to max+1, which is only
// safe inside the serialized test transactions.
func (r *Repository) NextOrderNumber(ctx context.Context) (int64, error) {
	if r.db.Dialector.Name() == "postgres" {
		var number int64
		if err := r.db.WithContext(ctx).
			Raw("SELECT nextval('order_number_seq')").
			Scan(&number).Error; err != nil {
			return 0, err
		}
		return number, nil
	}
	var current *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("MAX(order_number)").
		Scan(&current).Error; err != nil {
		return 0, err
	}
	if current == nil {
		return 1001, nil
	}
	return *current + 1, nil
}

// Create inserts the order with its items in one statement batch.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUser loads an order only if the given user owns it.
func (r *Repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate locks the order row. Items are loaded with a second query
// because FOR UPDATE cannot span the preload join. FOR UPDATE is
// postgres-only; other dialects fall back to a plain read.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Find(&order.Items, "order_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Save persists the mutated order. Item snapshots are immutable and are
// deliberately not written back.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

// ListFilters narrows an order listing.
type ListFilters struct {
	UserID      *uuid.UUID
	Status      *enums.OrderStatus
	Method      *enums.ShippingMethod
	PlacedAfter *time.Time
	OrderNumber *int64
}

// ListResult carries one page of orders plus the next cursor.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// List returns orders newest-first with cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Method != nil {
		query = query.Where("shipping_method = ?", *filters.Method)
	}
	if filters.PlacedAfter != nil {
		query = query.Where("created_at >= ?", *filters.PlacedAfter)
	}
	if filters.OrderNumber != nil {
		query = query.Where("order_number = ?", *filters.OrderNumber)
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

	var rows []models.Order
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
	result.Orders = rows
	return result, nil
}

// ListExpiredPending returns pending orders placed before the cutoff. The
// expiry job cancels them one transaction at a time.
func (r *Repository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
