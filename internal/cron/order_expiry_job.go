package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/logger"
)

const expiredOrderBatchSize = 100

// OrderExpiryJobParams configure the pending order expiry job.
type OrderExpiryJobParams struct {
	Logger     *logger.Logger
	Pending    expiredPendingReader
	Expirer    orderExpirer
	PendingTTL time.Duration
}

type expiredPendingReader interface {
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderExpirer interface {
	Expire(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderExpiryJob builds the cron job that cancels pending orders whose
// payment window has lapsed and puts their stock back on the shelf.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	if params.PendingTTL <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	return &orderExpiryJob{
		logg:       params.Logger,
		pending:    params.Pending,
		expirer:    params.Expirer,
		pendingTTL: params.PendingTTL,
		now:        time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg       *logger.Logger
	pending    expiredPendingReader
	expirer    orderExpirer
	pendingTTL time.Duration
	now        func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.pendingTTL)
	expired, err := j.pending.ListExpiredPending(ctx, cutoff, expiredOrderBatchSize)
	if err != nil {
		return fmt.Errorf("query expired pending orders: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	// Each order expires in its own transaction so one bad row cannot
	// block the rest of the batch.
	var errs []error
	expiredCount := 0
	for _, order := range expired {
		if err := j.expirer.Expire(ctx, order.ID); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expiredCount++
	}

	runCtx := j.logg.WithField(ctx, "expired_orders", expiredCount)
	j.logg.Info(runCtx, "expired stale pending orders")
	return multierr.Combine(errs...)
}
