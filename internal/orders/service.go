package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/internal/products"
	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/outbox"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// Service exposes order history and lifecycle operations. Placement itself
// lives in the checkout package; everything after placement lives here.
type Service interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, req ListRequest) (*ListResponse, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)

	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, req AdminListRequest) (*ListResponse, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
	ExportCSV(ctx context.Context, w io.Writer, req AdminListRequest) error

	Expire(ctx context.Context, orderID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	products *products.Repository
	tx       txRunner
	recorder *activity.Recorder
	outbox   *outbox.Service
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Products *products.Repository
	Tx       txRunner
	Recorder *activity.Recorder
	Outbox   *outbox.Service
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
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
		repo:     params.Repo,
		products: params.Products,
		tx:       params.Tx,
		recorder: params.Recorder,
		outbox:   params.Outbox,
	}, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDTO(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, req ListRequest) (*ListResponse, error) {
	result, err := s.repo.List(ctx, pagination.Params{Limit: req.Limit, Cursor: req.Cursor}, ListFilters{
		UserID: &userID,
		Status: req.Status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list orders")
	}
	return toListResponse(result), nil
}

// Cancel lets the owner back out of an order that has not been paid yet.
// Stock returns to the shelf in the same transaction.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	var cancelled *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}
		before := toDTO(order)

		if err := s.restock(ctx, tx, order.Items); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := txRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}

		cancelled = toDTO(order)
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &userID,
			Action:      enums.ActivityOrderCancelled,
			EntityType:  "order",
			EntityID:    &order.ID,
			Before:      before,
			After:       cancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record cancellation")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
			Data:          cancelled,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDTO(order), nil
}

func (s *service) AdminList(ctx context.Context, req AdminListRequest) (*ListResponse, error) {
	result, err := s.repo.List(ctx, pagination.Params{Limit: req.Limit, Cursor: req.Cursor}, ListFilters{
		Status:      req.Status,
		Method:      req.Method,
		PlacedAfter: req.PlacedAfter,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list orders")
	}
	return toListResponse(result), nil
}

// UpdateStatus moves an order along the lifecycle. Disallowed transitions
// come back as state conflicts so clients can distinguish them from races.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status")
	}

	var updated *OrderDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if !CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
		before := toDTO(order)

		now := time.Now().UTC()
		switch target {
		case enums.OrderStatusPaid:
			order.PaidAt = &now
		case enums.OrderStatusCancelled:
			if err := s.restock(ctx, tx, order.Items); err != nil {
				return err
			}
			order.CancelledAt = &now
		}
		order.Status = target
		if req.Note != nil {
			order.Note = req.Note
		}
		if err := txRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}

		updated = toDTO(order)
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      enums.ActivityOrderStatusChanged,
			EntityType:  "order",
			EntityID:    &order.ID,
			Before:      before,
			After:       updated,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status change")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleAdmin.String()},
			Data:          updated,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Expire cancels an unpaid order on behalf of the expiry job. It mirrors
// Cancel but records the dedicated expiry action and event.
func (s *service) Expire(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.Status != enums.OrderStatusPending {
			// Another worker or the customer got here first.
			return nil
		}
		before := toDTO(order)

		if err := s.restock(ctx, tx, order.Items); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := txRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}

		after := toDTO(order)
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			Action:     enums.ActivityOrderExpired,
			EntityType: "order",
			EntityID:   &order.ID,
			Before:     before,
			After:      after,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record expiry")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          after,
			Version:       1,
		})
	})
}

func (s *service) restock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	txProducts := s.products.WithTx(tx)
	for _, item := range items {
		if err := txProducts.AddStock(ctx, item.ProductID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restock product")
		}
	}
	return nil
}
