package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

// FamilyHandler serves the parent-facing family surface.
type FamilyHandler struct {
	familyService *service.FamilyService
	ledgerService *service.LedgerService
}

func NewFamilyHandler(familyService *service.FamilyService, ledgerService *service.LedgerService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService, ledgerService: ledgerService}
}

func (h *FamilyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Overview)
	r.Get("/members", h.Members)
	r.Post("/members/{userId}/grant-admin", h.GrantAdmin)
	r.Get("/children", h.Children)
	r.Post("/children/{id}/deactivate", h.DeactivateChild)
	r.Post("/children/{id}/revoke-devices", h.RevokeDevices)
	r.Get("/children/{id}/wallet", h.ChildWallet)
	r.Post("/children/{id}/wallet/adjust", h.AdjustWallet)
	r.Get("/wallets", h.Wallets)
	r.Get("/access-requests", h.AccessRequests)
	r.Post("/access-requests/{id}/approve", h.ApproveAccessRequest)
	r.Post("/access-requests/{id}/reject", h.RejectAccessRequest)

	return r
}

// GET /family
func (h *FamilyHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.familyService.GetFamilyContext(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// GET /family/members
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.familyService.ListParentMembers(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

// POST /family/members/{userId}/grant-admin
func (h *FamilyHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	targetUserID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.familyService.GrantAdmin(r.Context(), middleware.GetPrincipal(r.Context()), targetUserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /family/children?all=true
func (h *FamilyHandler) Children(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	children, err := h.familyService.ListChildren(r.Context(), middleware.GetPrincipal(r.Context()), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": children})
}

// POST /family/children/{id}/deactivate
func (h *FamilyHandler) DeactivateChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.familyService.DeactivateChild(r.Context(), middleware.GetPrincipal(r.Context()), childID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// POST /family/children/{id}/revoke-devices
func (h *FamilyHandler) RevokeDevices(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.familyService.RevokeChildDevices(r.Context(), middleware.GetPrincipal(r.Context()), childID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /family/children/{id}/wallet
func (h *FamilyHandler) ChildWallet(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	pagination := ParsePagination(r)

	wallet, txs, err := h.ledgerService.GetChildLedger(r.Context(), middleware.GetPrincipal(r.Context()), childID, pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet": wallet, "transactions": txs})
}

// POST /family/children/{id}/wallet/adjust
func (h *FamilyHandler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Amount int64   `json:"amount"`
		Note   *string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	wallet, err := h.ledgerService.AdjustChildWallet(r.Context(), middleware.GetPrincipal(r.Context()), childID, req.Amount, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet": wallet})
}

// GET /family/wallets
func (h *FamilyHandler) Wallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.ledgerService.GetFamilyWallets(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallets": wallets})
}

// GET /family/access-requests
func (h *FamilyHandler) AccessRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.familyService.ListAccessRequests(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// POST /family/access-requests/{id}/approve
func (h *FamilyHandler) ApproveAccessRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.familyService.ApproveAccessRequest(r.Context(), middleware.GetPrincipal(r.Context()), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /family/access-requests/{id}/reject
func (h *FamilyHandler) RejectAccessRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.familyService.RejectAccessRequest(r.Context(), middleware.GetPrincipal(r.Context()), requestID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
