package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/api/middleware"
	"github.com/naritchaphan/talad-backend/api/validators"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

// actorID pulls the authenticated user id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").
			WithDetails(map[string]any{"param": param})
	}
	return id, nil
}

const maxQueryFilterLen = 200

func optionalQuery(r *http.Request, key string) *string {
	value := validators.SanitizeString(r.URL.Query().Get(key), maxQueryFilterLen)
	if value == "" {
		return nil
	}
	return &value
}
