// Package chat owns durable sessions and their turn sequences.
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/iroha-ai/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	persona    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS turns (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role          TEXT NOT NULL,
	content       TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	voice_used    TEXT,
	response_time REAL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, created_at);
`

// Store persists sessions and turns in SQLite. Writes to the same session
// are serialized by a per-session mutex scoped to the database mutation
// only; it is never held across external calls.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore opens (and migrates) the SQLite database at path. Use ":memory:"
// for an ephemeral store.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session database: %w", err)
	}

	log.Info().Str("path", path).Msg("session store initialized")
	return &Store{db: db, log: log, locks: make(map[string]*sync.Mutex)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) dropLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// CreateSession provisions an empty session bound to a persona, carrying the
// default placeholder title.
func (s *Store) CreateSession(ctx context.Context, personaKey string) (chat.Session, error) {
	now := time.Now().UTC()
	session := chat.Session{
		ID:         uuid.NewString(),
		Title:      chat.DefaultTitle,
		PersonaKey: personaKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, persona, created_at, updated_at, archived) VALUES (?, ?, ?, ?, ?, 0)`,
		session.ID, session.Title, session.PersonaKey, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.log.Debug().Str("session_id", session.ID).Str("persona", personaKey).Msg("session created")
	return session, nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (chat.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, persona, created_at, updated_at, archived FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns session summaries ordered by updatedAt descending,
// hiding archived sessions unless asked for.
func (s *Store) ListSessions(ctx context.Context, includeArchived bool) ([]chat.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.persona, s.created_at, s.updated_at, s.archived, COUNT(t.id)
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		WHERE ? OR s.archived = 0
		GROUP BY s.id
		ORDER BY s.updated_at DESC`, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]chat.SessionSummary, 0, 16)
	for rows.Next() {
		var sum chat.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.PersonaKey, &sum.CreatedAt, &sum.UpdatedAt, &sum.Archived, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// RenameSession sets an explicit title. After a rename the auto-title rule
// never re-triggers, because the title no longer holds its placeholder.
func (s *Store) RenameSession(ctx context.Context, id, title string) (chat.Session, error) {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.GetSession(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}

	updated := bump(session.UpdatedAt)
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, updated, id)
	if err != nil {
		return chat.Session{}, fmt.Errorf("rename session: %w", err)
	}

	session.Title = title
	session.UpdatedAt = updated
	return session, nil
}

// SetArchived flips the soft archival flag.
func (s *Store) SetArchived(ctx context.Context, id string, archived bool) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession permanently removes a session and all its turns.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	s.dropLock(id)
	s.log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// ClearTurns removes every turn of a session, leaving the session itself.
func (s *Store) ClearTurns(ctx context.Context, id string) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	return nil
}

// TurnMeta carries the optional metadata recorded with a turn.
type TurnMeta struct {
	VoiceUsed           string
	ResponseTimeSeconds float64
}

// AddTurn appends a turn to a session. Two side effects are part of the
// contract: the parent session's updatedAt is bumped, and while the title
// still holds its placeholder the first user turn derives the title.
func (s *Store) AddTurn(ctx context.Context, sessionID, role, content string, meta TurnMeta) (chat.Turn, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("begin add turn: %w", err)
	}
	defer tx.Rollback()

	session, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT id, title, persona, created_at, updated_at, archived FROM sessions WHERE id = ?`, sessionID))
	if err != nil {
		return chat.Turn{}, err
	}

	updated := bump(session.UpdatedAt)
	title := session.Title
	if title == chat.DefaultTitle && role == chat.RoleUser {
		title = chat.DeriveTitle(content)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, updated, sessionID); err != nil {
		return chat.Turn{}, fmt.Errorf("touch session: %w", err)
	}

	turn := chat.Turn{
		ID:                  uuid.NewString(),
		SessionID:           sessionID,
		Role:                role,
		Content:             content,
		CreatedAt:           updated,
		VoiceUsed:           meta.VoiceUsed,
		ResponseTimeSeconds: meta.ResponseTimeSeconds,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, role, content, created_at, voice_used, response_time) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.Role, turn.Content, turn.CreatedAt, nullableString(turn.VoiceUsed), nullableFloat(turn.ResponseTimeSeconds)); err != nil {
		return chat.Turn{}, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return chat.Turn{}, fmt.Errorf("commit add turn: %w", err)
	}
	return turn, nil
}

// History returns a session's turns in chronological order.
func (s *Store) History(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at, voice_used, response_time
		FROM turns WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0, 16)
	for rows.Next() {
		var (
			turn  chat.Turn
			voice sql.NullString
			rtime sql.NullFloat64
		)
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &turn.Content, &turn.CreatedAt, &voice, &rtime); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.VoiceUsed = voice.String
		turn.ResponseTimeSeconds = rtime.Float64
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (chat.Session, error) {
	var session chat.Session
	err := row.Scan(&session.ID, &session.Title, &session.PersonaKey, &session.CreatedAt, &session.UpdatedAt, &session.Archived)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}

// bump returns the current time, clamped so updatedAt strictly increases
// even if the wall clock stalls or moves backwards.
func bump(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}
