package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iroha-ai/backend/internal/analysis/sentiment"
	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/model/chat"
	aiservice "github.com/iroha-ai/backend/internal/service/ai"
	"github.com/iroha-ai/backend/pkg/utils"
)

// Handler serves stateless chat: the caller holds the history and supplies
// it inline with every request.
type Handler struct {
	aiSvc *aiservice.Service
}

// New creates the chat handler.
func New(aiSvc *aiservice.Service) *Handler {
	return &Handler{aiSvc: aiSvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/sentiment", h.handleSentiment)
}

// HistoryEntry is the wire shape of one inline history turn.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatPayload is the stateless chat request body.
type ChatPayload struct {
	Message     string         `json:"message"`
	Persona     string         `json:"persona"`
	History     []HistoryEntry `json:"history"`
	Temperature *float32       `json:"temperature,omitempty"`
	MaxTokens   *int           `json:"maxTokens,omitempty"`
}

// Turns converts the wire history into model turns.
func (p ChatPayload) Turns() []chat.Turn {
	turns := make([]chat.Turn, 0, len(p.History))
	for _, entry := range p.History {
		turns = append(turns, chat.Turn{Role: entry.Role, Content: entry.Content})
	}
	return turns
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.aiSvc.Respond(r.Context(), aiservice.RespondRequest{
		Message:    payload.Message,
		PersonaKey: payload.Persona,
		History:    payload.Turns(),
		Sampling:   history.Sampling{Temperature: payload.Temperature, MaxTokens: payload.MaxTokens},
	})
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"sentiment": string(sentiment.Analyze(payload.Text)),
	})
}
