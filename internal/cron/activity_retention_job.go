package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/naritchaphan/talad-backend/pkg/logger"
)

// ActivityRetentionJobParams configure the activity log retention job.
type ActivityRetentionJobParams struct {
	Logger        *logger.Logger
	Activity      activityPruner
	RetentionDays int
}

type activityPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewActivityRetentionJob builds the cron job that prunes activity log rows
// older than the retention window.
func NewActivityRetentionJob(params ActivityRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity pruner required")
	}
	if params.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive")
	}
	return &activityRetentionJob{
		logg:          params.Logger,
		activity:      params.Activity,
		retentionDays: params.RetentionDays,
		now:           time.Now,
	}, nil
}

type activityRetentionJob struct {
	logg          *logger.Logger
	activity      activityPruner
	retentionDays int
	now           func() time.Time
}

func (j *activityRetentionJob) Name() string { return "activity-retention" }

func (j *activityRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)
	deleted, err := j.activity.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune activity logs: %w", err)
	}
	runCtx := j.logg.WithField(ctx, "deleted_rows", deleted)
	j.logg.Info(runCtx, "pruned activity logs past retention")
	return nil
}
