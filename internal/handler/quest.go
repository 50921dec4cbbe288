package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/service"
)

type QuestHandler struct {
	questService *service.QuestService
}

func NewQuestHandler(questService *service.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

func (h *QuestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}/reward", h.UpdateReward)
	r.Get("/assignments", h.Assignments)
	r.Post("/{id}/submit", h.Submit)
	r.Get("/review", h.ReviewQueue)
	r.Post("/{id}/review", h.Review)

	return r
}

// GET /quests
func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	quests, err := h.questService.ListFamilyQuests(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": quests})
}

// POST /quests
func (h *QuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateQuestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	quest, err := h.questService.CreateQuest(r.Context(), middleware.GetPrincipal(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quest)
}

// PATCH /quests/{id}/reward
func (h *QuestHandler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	questID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Reward int64 `json:"reward"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.questService.UpdateQuestReward(r.Context(), middleware.GetPrincipal(r.Context()), questID, req.Reward); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /quests/assignments
func (h *QuestHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	assignments, err := h.questService.ListChildAssignments(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// POST /quests/{id}/submit
func (h *QuestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	questID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		EvidenceKey *string `json:"evidenceKey,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.ValidationError("Invalid request body"))
			return
		}
	}

	if err := h.questService.SubmitQuest(r.Context(), middleware.GetPrincipal(r.Context()), questID, req.EvidenceKey); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// GET /quests/review
func (h *QuestHandler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	items, err := h.questService.ListReviewQueue(r.Context(), middleware.GetPrincipal(r.Context()), pagination.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// POST /quests/{id}/review
func (h *QuestHandler) Review(w http.ResponseWriter, r *http.Request) {
	questID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		ChildID string  `json:"childId"`
		Approve bool    `json:"approve"`
		Comment *string `json:"comment,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.ChildID == "" {
		writeError(w, apperrors.MissingRequired("childId"))
		return
	}

	if err := h.questService.ReviewQuest(r.Context(), middleware.GetPrincipal(r.Context()), questID, req.ChildID, req.Approve, req.Comment); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reviewed"})
}
