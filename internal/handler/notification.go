package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/{id}/read", h.MarkRead)

	return r
}

// GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	items, err := h.notificationService.ListForUser(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), middleware.GetPrincipal(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
