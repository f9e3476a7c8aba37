package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/enums"
)

// ActivityLog is the append-only audit trail. Before/After hold JSON
// snapshots of the mutated entity; ErrorMessage is set on failed attempts.
type ActivityLog struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorUserID  *uuid.UUID           `gorm:"column:actor_user_id;type:uuid"`
	Action       enums.ActivityAction `gorm:"column:action;type:text;not null;index"`
	EntityType   string               `gorm:"column:entity_type;not null"`
	EntityID     *uuid.UUID           `gorm:"column:entity_id;type:uuid"`
	Before       json.RawMessage      `gorm:"column:before;type:jsonb"`
	After        json.RawMessage      `gorm:"column:after;type:jsonb"`
	ErrorMessage *string              `gorm:"column:error_message"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
