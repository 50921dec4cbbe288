package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/util"
)

// pathID extracts a UUID path parameter. The id columns are uuid-typed, so a
// malformed value is rejected here instead of erroring inside the database.
func pathID(r *http.Request, key string) (string, error) {
	id := chi.URLParam(r, key)
	if !util.IsValidUUID(id) {
		return "", apperrors.InvalidInput(key, "must be a valid id")
	}
	return id, nil
}
