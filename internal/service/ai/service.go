// Package ai orchestrates persona conversations against the completion
// provider, enforcing the persist-before-call durability rule.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/model/persona"
	chatstore "github.com/iroha-ai/backend/internal/service/chat"
)

// RespondRequest describes one chat exchange. SessionID selects session
// mode; otherwise History supplies the caller-held turns.
type RespondRequest struct {
	Message    string
	PersonaKey string
	SessionID  string
	History    []chat.Turn
	Sampling   history.Sampling
}

// PersonaInfo is the persona summary attached to replies.
type PersonaInfo struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Reply is the tagged result of one exchange. OK distinguishes the success
// variant from the failure variant; a failure still carries in-persona Text
// so the end user never sees a bare error.
type Reply struct {
	OK             bool        `json:"ok"`
	Text           string      `json:"text"`
	Persona        PersonaInfo `json:"persona"`
	FinishReason   string      `json:"finishReason,omitempty"`
	ElapsedSeconds float64     `json:"elapsedSeconds,omitempty"`
	ErrDetail      string      `json:"errDetail,omitempty"`
}

// Service is the response orchestrator.
type Service struct {
	personas *persona.Registry
	store    *chatstore.Store
	builder  *history.Builder
	client   CompletionClient
	log      zerolog.Logger
}

// NewService wires the orchestrator. The store may be nil when only
// inline-history chat is needed (the websocket path and tools).
func NewService(personas *persona.Registry, store *chatstore.Store, builder *history.Builder, client CompletionClient, log zerolog.Logger) *Service {
	return &Service{personas: personas, store: store, builder: builder, client: client, log: log}
}

// Respond runs one exchange. Errors are returned only for caller mistakes:
// sampling overrides out of bounds, or an unknown session id
// (chatstore.ErrSessionNotFound). Provider failures are folded into a
// failure Reply and never escape as errors.
//
// Side-effect order in session mode is fixed: the user turn persists before
// the provider call, the assistant turn only after a success. A failed
// exchange records no assistant turn and rolls nothing back.
func (s *Service) Respond(ctx context.Context, req RespondRequest) (Reply, error) {
	p := s.personas.Lookup(req.PersonaKey)
	info := PersonaInfo{Key: p.Key, Name: p.Name, Avatar: p.Avatar}

	sampling, err := req.Sampling.Resolve(p)
	if err != nil {
		return Reply{}, err
	}

	turns := req.History
	sessionMode := req.SessionID != ""
	if sessionMode {
		turns, err = s.store.History(ctx, req.SessionID)
		if err != nil {
			return Reply{}, err
		}
		if _, err := s.store.AddTurn(ctx, req.SessionID, chat.RoleUser, req.Message, chatstore.TurnMeta{}); err != nil {
			return Reply{}, fmt.Errorf("persist user turn: %w", err)
		}
	}

	msgs := s.builder.Build(p, turns, req.Message)

	start := time.Now()
	completion, err := s.client.Complete(ctx, msgs, sampling.Temperature, sampling.MaxTokens)
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error().Err(err).Str("persona", p.Key).Str("session_id", req.SessionID).Msg("completion failed")
		return Reply{
			OK:        false,
			Text:      fmt.Sprintf("Gomen nasai~ Something went wrong... Error: %s", err),
			Persona:   info,
			ErrDetail: err.Error(),
		}, nil
	}

	if sessionMode {
		meta := chatstore.TurnMeta{ResponseTimeSeconds: roundSeconds(elapsed)}
		if _, err := s.store.AddTurn(ctx, req.SessionID, chat.RoleAssistant, completion.Text, meta); err != nil {
			// The exchange succeeded; losing the assistant turn is logged
			// but not surfaced as a failed reply.
			s.log.Error().Err(err).Str("session_id", req.SessionID).Msg("persist assistant turn failed")
		}
	}

	s.log.Info().
		Str("persona", p.Key).
		Str("session_id", req.SessionID).
		Dur("elapsed", elapsed).
		Int("reply_len", len(completion.Text)).
		Msg("response generated")

	return Reply{
		OK:             true,
		Text:           completion.Text,
		Persona:        info,
		FinishReason:   completion.FinishReason,
		ElapsedSeconds: roundSeconds(elapsed),
	}, nil
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond)) / float64(time.Second)
}
