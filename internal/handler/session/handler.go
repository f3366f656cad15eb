package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/model/persona"
	aiservice "github.com/iroha-ai/backend/internal/service/ai"
	chatstore "github.com/iroha-ai/backend/internal/service/chat"
	"github.com/iroha-ai/backend/pkg/utils"
)

// Handler serves session CRUD and session-bound chat.
type Handler struct {
	store    *chatstore.Store
	personas *persona.Registry
	aiSvc    *aiservice.Service
}

// New creates the session handler.
func New(store *chatstore.Store, personas *persona.Registry, aiSvc *aiservice.Service) *Handler {
	return &Handler{store: store, personas: personas, aiSvc: aiSvc}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{sessionID}", h.handleGet)
		r.Patch("/{sessionID}", h.handleUpdate)
		r.Delete("/{sessionID}", h.handleDelete)
		r.Delete("/{sessionID}/turns", h.handleClearTurns)
		r.Post("/{sessionID}/chat", h.handleChat)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Persona string `json:"persona"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// Unknown persona keys resolve to the default persona, same as chat.
	p := h.personas.Lookup(payload.Persona)
	session, err := h.store.CreateSession(r.Context(), p.Key)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("includeArchived"))

	summaries, err := h.store.ListSessions(r.Context(), includeArchived)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	turns, err := h.store.History(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, struct {
		chat.Session
		Turns []chat.Turn `json:"turns"`
	}{Session: session, Turns: turns})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Title    *string `json:"title"`
		Archived *bool   `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Title == nil && payload.Archived == nil {
		utils.RespondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if payload.Title != nil {
		if strings.TrimSpace(*payload.Title) == "" {
			utils.RespondError(w, http.StatusBadRequest, "title must not be empty")
			return
		}
		if _, err := h.store.RenameSession(r.Context(), sessionID, *payload.Title); err != nil {
			respondStoreError(w, err)
			return
		}
	}
	if payload.Archived != nil {
		if err := h.store.SetArchived(r.Context(), sessionID, *payload.Archived); err != nil {
			respondStoreError(w, err)
			return
		}
	}

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleClearTurns(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearTurns(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Message     string   `json:"message"`
		Temperature *float32 `json:"temperature,omitempty"`
		MaxTokens   *int     `json:"maxTokens,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	reply, err := h.aiSvc.Respond(r.Context(), aiservice.RespondRequest{
		Message:    payload.Message,
		PersonaKey: session.PersonaKey,
		SessionID:  sessionID,
		Sampling:   history.Sampling{Temperature: payload.Temperature, MaxTokens: payload.MaxTokens},
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// respondStoreError maps a store/orchestrator error to a status: unknown
// session ids are a distinct not-found outcome, everything else a caller
// error surfaced as 400.
func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatstore.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondError(w, http.StatusBadRequest, err.Error())
}
