package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iroha-ai/backend/internal/model/persona"
	"github.com/iroha-ai/backend/pkg/utils"
)

// Handler serves the persona catalog.
type Handler struct {
	personas *persona.Registry
}

// New creates the persona handler.
func New(personas *persona.Registry) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
