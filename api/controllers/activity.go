package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/api/responses"
	"github.com/naritchaphan/talad-backend/api/validators"
	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/logger"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// AdminActivityList pages through the audit feed newest-first.
func AdminActivityList(repo *activity.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := activity.ListFilters{
			EntityType: optionalQuery(r, "entity_type"),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action := enums.ActivityAction(raw)
			filters.Action = &action
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("entity_id")); raw != "" {
			entityID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid entity_id"))
				return
			}
			filters.EntityID = &entityID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
			since, parseErr := time.Parse(time.RFC3339, raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "since must be RFC3339"))
				return
			}
			filters.Since = &since
		}

		result, err := repo.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, activity.ToListResponse(result))
	}
}
