package ws

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	chathandler "github.com/iroha-ai/backend/internal/handler/chat"
	"github.com/iroha-ai/backend/internal/history"
	aiservice "github.com/iroha-ai/backend/internal/service/ai"
)

// Handler serves the persistent bidirectional chat channel. Each inbound
// frame is processed as an independent stateless exchange with the
// caller-supplied inline history; the connection itself holds no
// conversation state.
type Handler struct {
	aiSvc    *aiservice.Service
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(aiSvc *aiservice.Service, log zerolog.Logger) *Handler {
	return &Handler{
		aiSvc: aiSvc,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleChat)
}

type outboundFrame struct {
	Type  string           `json:"type"`
	Reply *aiservice.Reply `json:"reply,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("chat channel opened")

	for {
		var payload chathandler.ChatPayload
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("chat channel read failed")
			}
			return
		}

		if payload.Message == "" {
			h.write(conn, outboundFrame{Type: "error", Error: "message is required"})
			continue
		}

		reply, err := h.aiSvc.Respond(r.Context(), aiservice.RespondRequest{
			Message:    payload.Message,
			PersonaKey: payload.Persona,
			History:    payload.Turns(),
			Sampling:   history.Sampling{Temperature: payload.Temperature, MaxTokens: payload.MaxTokens},
		})
		if err != nil {
			h.write(conn, outboundFrame{Type: "error", Error: err.Error()})
			continue
		}

		h.write(conn, outboundFrame{Type: "reply", Reply: &reply})
	}
}

func (h *Handler) write(conn *websocket.Conn, frame outboundFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Warn().Err(err).Msg("chat channel write failed")
	}
}
