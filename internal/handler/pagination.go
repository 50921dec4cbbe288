package handler

import (
	"net/http"
	"strconv"

	"github.com/famquest/family-server-go/internal/config"
)

const defaultListLimit = 50

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset query params. Limits are clamped to the
// same ceiling the repositories enforce on list queries.
func ParsePagination(r *http.Request) PaginationParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > config.MaxListRows:
		limit = config.MaxListRows
	}

	if offset < 0 {
		offset = 0
	}

	return PaginationParams{Limit: limit, Offset: offset}
}
