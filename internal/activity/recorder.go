package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/logger"
)

// Entry describes one auditable action. Before and After are snapshotted to
// JSON at record time so later mutations of the passed values are harmless.
type Entry struct {
	ActorUserID  *uuid.UUID
	Action       enums.ActivityAction
	EntityType   string
	EntityID     *uuid.UUID
	Before       any
	After        any
	ErrorMessage *string
}

// Recorder writes audit rows inside the caller's transaction so the log
// commits or rolls back together with the mutation it describes.
type Recorder struct {
	repo *Repository
	logg *logger.Logger
}

// NewRecorder builds the audit recorder.
func NewRecorder(repo *Repository, logg *logger.Logger) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &Recorder{repo: repo, logg: logg}, nil
}

// Record appends the entry within tx. When tx is nil the repo's own
// connection is used, which is how failure rows get written after a
// rollback.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	row := &models.ActivityLog{
		ID:           uuid.New(),
		ActorUserID:  entry.ActorUserID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		ErrorMessage: entry.ErrorMessage,
	}

	var err error
	if row.Before, err = snapshot(entry.Before); err != nil {
		return fmt.Errorf("snapshot before state: %w", err)
	}
	if row.After, err = snapshot(entry.After); err != nil {
		return fmt.Errorf("snapshot after state: %w", err)
	}

	repo := r.repo
	if tx != nil {
		repo = r.repo.WithTx(tx)
	}
	return repo.Insert(ctx, row)
}

// RecordOrLog records the entry and, when that fails, logs instead of
// surfacing the error. Used where losing an audit row must not fail the
// caller, like failure bookkeeping after a rollback.
func (r *Recorder) RecordOrLog(ctx context.Context, tx *gorm.DB, entry Entry) {
	if err := r.Record(ctx, tx, entry); err != nil && r.logg != nil {
		r.logg.Error(ctx, "record activity", err)
	}
}

func snapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return data, nil
}
