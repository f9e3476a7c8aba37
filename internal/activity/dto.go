package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
)

// EntryDTO is one audit row as served to the back office.
type EntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	ActorUserID  *uuid.UUID      `json:"actor_user_id,omitempty"`
	Action       string          `json:"action"`
	EntityType   string          `json:"entity_type"`
	EntityID     *uuid.UUID      `json:"entity_id,omitempty"`
	Before       json.RawMessage `json:"before,omitempty"`
	After        json.RawMessage `json:"after,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ListResponse is one page of the activity feed.
type ListResponse struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ToListResponse converts a repository page for API responses.
func ToListResponse(result *ListResult) *ListResponse {
	response := &ListResponse{
		Entries:    make([]EntryDTO, 0, len(result.Entries)),
		NextCursor: result.NextCursor,
	}
	for _, row := range result.Entries {
		response.Entries = append(response.Entries, toEntryDTO(row))
	}
	return response
}

func toEntryDTO(row models.ActivityLog) EntryDTO {
	return EntryDTO{
		ID:           row.ID,
		ActorUserID:  row.ActorUserID,
		Action:       row.Action.String(),
		EntityType:   row.EntityType,
		EntityID:     row.EntityID,
		Before:       row.Before,
		After:        row.After,
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
	}
}
