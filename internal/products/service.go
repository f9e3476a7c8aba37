package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

// Service exposes the public catalog plus the admin product operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Categories(ctx context.Context) ([]string, error)

	AdminGet(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	AdminList(ctx context.Context, req AdminListRequest) (*ListResponse, error)
	Create(ctx context.Context, actorID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
	Restore(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*ProductDTO, error)
	AdjustStock(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req AdjustStockRequest) (*ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	recorder *activity.Recorder
}

// NewService constructs the product service.
func NewService(repo *Repository, tx txRunner, recorder *activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: repo, tx: tx, recorder: recorder}, nil
}

// Get returns one visible product. Hidden and deleted products look the
// same as missing ones from the storefront.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return toDTO(product), nil
}

func (s *service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	result, err := s.repo.List(ctx, paginationParams(req.Limit, req.Cursor), ListFilters{
		Category: req.Category,
		Search:   req.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list products")
	}
	return toListResponse(result), nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) AdminGet(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByIDUnscoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toDTO(product), nil
}

func (s *service) AdminList(ctx context.Context, req AdminListRequest) (*ListResponse, error) {
	result, err := s.repo.List(ctx, paginationParams(req.Limit, req.Cursor), ListFilters{
		Category:       req.Category,
		Search:         req.Search,
		IncludeHidden:  req.IncludeHidden,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list products")
	}
	return toListResponse(result), nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	product := &models.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceSatang: req.PriceSatang,
		StockQty:    req.StockQty,
		ImageURL:    req.ImageURL,
		IsActive:    isActive,
	}

	var created *ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.WithTx(tx).Create(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create product")
		}
		created = toDTO(row)
		return s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityProductCreated,
			EntityType:  "product",
			EntityID:    &row.ID,
			After:       created,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	var updated *ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		before := toDTO(product)

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = req.Description
		}
		if req.Category != nil {
			product.Category = *req.Category
		}
		if req.PriceSatang != nil {
			product.PriceSatang = *req.PriceSatang
		}
		if req.ImageURL != nil {
			product.ImageURL = req.ImageURL
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		if err := txRepo.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save product")
		}

		updated = toDTO(product)
		return s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityProductUpdated,
			EntityType:  "product",
			EntityID:    &product.ID,
			Before:      before,
			After:       updated,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the product. Orders that already reference it keep
// their name and price snapshots.
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		before := toDTO(product)

		if err := txRepo.SoftDelete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		return s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityProductDeleted,
			EntityType:  "product",
			EntityID:    &product.ID,
			Before:      before,
		})
	})
}

func (s *service) Restore(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*ProductDTO, error) {
	var restored *ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByIDUnscoped(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.DeletedAt.Valid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not deleted")
		}

		if err := txRepo.Restore(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore product")
		}

		row, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		restored = toDTO(row)
		return s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityProductRestored,
			EntityType:  "product",
			EntityID:    &row.ID,
			After:       restored,
		})
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// AdjustStock sets the stock level under the same row lock checkout uses,
// so a manual correction and a concurrent purchase serialize.
func (s *service) AdjustStock(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req AdjustStockRequest) (*ProductDTO, error) {
	if req.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_qty cannot be negative")
	}

	var adjusted *ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		before := toDTO(product)

		if err := txRepo.UpdateStock(ctx, id, req.StockQty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock")
		}
		product.StockQty = req.StockQty

		adjusted = toDTO(product)
		return s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityStockAdjusted,
			EntityType:  "product",
			EntityID:    &product.ID,
			Before:      before,
			After:       adjusted,
		})
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}
