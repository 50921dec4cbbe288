package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/service"
)

// PairingHandler serves the unauthenticated child-device pairing flow.
// Submit and poll carry separate IP rate limits since devices poll in a loop.
type PairingHandler struct {
	pairingService *service.PairingService
	submitLimit    func(http.Handler) http.Handler
	pollLimit      func(http.Handler) http.Handler
}

func NewPairingHandler(pairingService *service.PairingService, submitLimit, pollLimit func(http.Handler) http.Handler) *PairingHandler {
	return &PairingHandler{
		pairingService: pairingService,
		submitLimit:    submitLimit,
		pollLimit:      pollLimit,
	}
}

func (h *PairingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.submitLimit).Post("/access-request", h.Submit)
	r.With(h.pollLimit).Get("/access-request/{id}/poll", h.Poll)
	r.With(h.submitLimit).Post("/restore-session", h.Restore)

	return r
}

// POST /child/access-request
func (h *PairingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input service.SubmitAccessRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.pairingService.SubmitAccessRequest(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GET /child/access-request/{id}/poll?deviceId=...&deviceKey=...
func (h *PairingHandler) Poll(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	deviceID := r.URL.Query().Get("deviceId")
	deviceSecret := r.URL.Query().Get("deviceKey")

	result, err := h.pairingService.PollAccessRequest(r.Context(), requestID, deviceID, deviceSecret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /child/restore-session
func (h *PairingHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var input service.RestoreSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.pairingService.RestoreSession(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
