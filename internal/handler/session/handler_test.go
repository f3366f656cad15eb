package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/model/persona"
	aiservice "github.com/iroha-ai/backend/internal/service/ai"
	chatstore "github.com/iroha-ai/backend/internal/service/chat"
	"github.com/iroha-ai/backend/internal/token"
)

type echoClient struct{}

func (echoClient) Complete(_ context.Context, msgs []history.Message, _ float32, _ int) (aiservice.Completion, error) {
	last := msgs[len(msgs)-1]
	return aiservice.Completion{Text: "re: " + last.Content, FinishReason: "stop"}, nil
}

func setup(t *testing.T) (*chi.Mux, *chatstore.Store) {
	t.Helper()

	store, err := chatstore.NewStore(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := persona.NewRegistry(persona.Seed())
	builder := history.NewBuilder(token.EstimateCounter{}, 6000)
	aiSvc := aiservice.NewService(registry, store, builder, echoClient{}, zerolog.Nop())

	r := chi.NewRouter()
	New(store, registry, aiSvc).RegisterRoutes(r)
	return r, store
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chat.Session {
	t.Helper()
	resp := do(r, http.MethodPost, "/sessions", map[string]string{"persona": "iroha"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session chat.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestCreateSessionDefaults(t *testing.T) {
	r, _ := setup(t)

	session := createSession(t, r)
	if session.Title != chat.DefaultTitle {
		t.Fatalf("expected placeholder title, got %q", session.Title)
	}
	if session.PersonaKey != "iroha" {
		t.Fatalf("expected iroha persona, got %q", session.PersonaKey)
	}
}

func TestCreateSessionUnknownPersonaFallsBack(t *testing.T) {
	r, _ := setup(t)

	resp := do(r, http.MethodPost, "/sessions", map[string]string{"persona": "nobody"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session chat.Session
	json.Unmarshal(resp.Body.Bytes(), &session)
	if session.PersonaKey != persona.DefaultKey {
		t.Fatalf("expected fallback to %q, got %q", persona.DefaultKey, session.PersonaKey)
	}
}

func TestSessionChatPersistsTurns(t *testing.T) {
	r, store := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPost, "/sessions/"+session.ID+"/chat", map[string]string{"message": "konnichiwa"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var reply aiservice.Reply
	if err := json.Unmarshal(resp.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !reply.OK || reply.Text != "re: konnichiwa" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	turns, err := store.History(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(turns))
	}
	if turns[0].Role != chat.RoleUser || turns[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected turn order: %s, %s", turns[0].Role, turns[1].Role)
	}
}

func TestSessionChatUnknownSession(t *testing.T) {
	r, _ := setup(t)

	resp := do(r, http.MethodPost, "/sessions/no-such-id/chat", map[string]string{"message": "hi"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSessionChatEmptyMessage(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPost, "/sessions/"+session.ID+"/chat", map[string]string{"message": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetSessionWithTurns(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	do(r, http.MethodPost, "/sessions/"+session.ID+"/chat", map[string]string{"message": "first message"})

	resp := do(r, http.MethodGet, "/sessions/"+session.ID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		chat.Session
		Turns []chat.Turn `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(body.Turns))
	}
	if body.Title != "first message" {
		t.Fatalf("expected auto-title from first user turn, got %q", body.Title)
	}
}

func TestListSessions(t *testing.T) {
	r, _ := setup(t)
	createSession(t, r)
	createSession(t, r)

	resp := do(r, http.MethodGet, "/sessions", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var summaries []chat.SessionSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(summaries))
	}
}

func TestRenameSession(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPatch, "/sessions/"+session.ID, map[string]string{"title": "Calculus help"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated chat.Session
	json.Unmarshal(resp.Body.Bytes(), &updated)
	if updated.Title != "Calculus help" {
		t.Fatalf("expected renamed title, got %q", updated.Title)
	}
}

func TestRenameEmptyTitleRejected(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPatch, "/sessions/"+session.ID, map[string]string{"title": "  "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpdateNothingRejected(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPatch, "/sessions/"+session.ID, map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestArchiveHidesFromList(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodPatch, "/sessions/"+session.ID, map[string]bool{"archived": true})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var summaries []chat.SessionSummary
	list := do(r, http.MethodGet, "/sessions", nil)
	json.Unmarshal(list.Body.Bytes(), &summaries)
	if len(summaries) != 0 {
		t.Fatalf("archived session should be hidden, got %d", len(summaries))
	}

	list = do(r, http.MethodGet, "/sessions?includeArchived=true", nil)
	json.Unmarshal(list.Body.Bytes(), &summaries)
	if len(summaries) != 1 {
		t.Fatalf("includeArchived should show it, got %d", len(summaries))
	}
}

func TestDeleteSession(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)

	resp := do(r, http.MethodDelete, "/sessions/"+session.ID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = do(r, http.MethodGet, "/sessions/"+session.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestDeleteUnknownSession(t *testing.T) {
	r, _ := setup(t)

	resp := do(r, http.MethodDelete, "/sessions/no-such-id", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestClearTurnsKeepsSession(t *testing.T) {
	r, _ := setup(t)
	session := createSession(t, r)
	do(r, http.MethodPost, "/sessions/"+session.ID+"/chat", map[string]string{"message": "hi"})

	resp := do(r, http.MethodDelete, "/sessions/"+session.ID+"/turns", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	get := do(r, http.MethodGet, "/sessions/"+session.ID, nil)
	var body struct {
		chat.Session
		Turns []chat.Turn `json:"turns"`
	}
	json.Unmarshal(get.Body.Bytes(), &body)
	if len(body.Turns) != 0 {
		t.Fatalf("expected no turns after clear, got %d", len(body.Turns))
	}
}
