package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

// AdminHandler serves the platform-operator API.
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/families", h.Families)
	r.Get("/profiles", h.Profiles)
	r.Get("/children", h.Children)
	r.Get("/quests", h.Quests)
	r.Get("/products", h.Products)
	r.Get("/purchases", h.Purchases)
	r.Get("/access-requests", h.AccessRequests)
	r.Post("/access-requests/{id}/decide", h.DecideAccessRequest)
	r.Post("/children/{id}/deactivate", h.DeactivateChild)
	r.Post("/purchases/{id}/decide", h.DecidePurchase)

	return r
}

// GET /admin/families
func (h *AdminHandler) Families(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	families, err := h.adminService.ListFamilies(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"families": families})
}

// GET /admin/profiles
func (h *AdminHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	profiles, err := h.adminService.ListProfiles(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// GET /admin/children
func (h *AdminHandler) Children(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	children, err := h.adminService.ListChildren(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": children})
}

// GET /admin/quests
func (h *AdminHandler) Quests(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	quests, err := h.adminService.ListQuests(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": quests})
}

// GET /admin/products
func (h *AdminHandler) Products(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	products, err := h.adminService.ListProducts(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// GET /admin/purchases
func (h *AdminHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	purchases, err := h.adminService.ListPurchases(r.Context(), middleware.GetPrincipal(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

// GET /admin/access-requests?status=pending
func (h *AdminHandler) AccessRequests(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	status := r.URL.Query().Get("status")
	requests, err := h.adminService.ListAccessRequests(r.Context(), middleware.GetPrincipal(r.Context()), status, p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// POST /admin/access-requests/{id}/decide
func (h *AdminHandler) DecideAccessRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.adminService.DecideAccessRequest(r.Context(), middleware.GetPrincipal(r.Context()), requestID, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /admin/children/{id}/deactivate
func (h *AdminHandler) DeactivateChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.adminService.DeactivateChild(r.Context(), middleware.GetPrincipal(r.Context()), childID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// POST /admin/purchases/{id}/decide
func (h *AdminHandler) DecidePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	purchase, err := h.adminService.DecidePurchase(r.Context(), middleware.GetPrincipal(r.Context()), purchaseID, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}
