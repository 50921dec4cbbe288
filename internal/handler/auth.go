package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/famquest/family-server-go/internal/audit"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)

	return r
}

// POST /auth/signup
// Registers a parent account and creates their family.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input service.SignUpParentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.authService.SignUpParent(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventSignup,
		UserID:   result.User.ID,
		FamilyID: result.Family.ID,
	})

	writeJSON(w, http.StatusCreated, result)
}

// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		UserID:   result.User.ID,
		FamilyID: result.Profile.FamilyID,
	})

	writeJSON(w, http.StatusOK, result)
}

// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":     principal.Role,
		"userId":   principal.UserID,
		"familyId": principal.FamilyID,
		"childId":  principal.ChildID,
	})
}
