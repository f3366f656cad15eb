package chat

import "time"

// DefaultTitle is the placeholder a session carries until its title is
// auto-derived from the first user turn or renamed explicitly.
const DefaultTitle = "New Chat"

// titleLimit bounds auto-derived titles.
const titleLimit = 50

// Session is a persisted conversation thread owning an ordered sequence of
// turns. UpdatedAt is bumped on every turn append and title edit and never
// moves backwards.
type Session struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	PersonaKey string    `json:"persona"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Archived   bool      `json:"archived"`
}

// SessionSummary is the listing shape: session metadata plus its turn count.
type SessionSummary struct {
	Session
	MessageCount int `json:"messageCount"`
}

// DeriveTitle produces the auto-title for a session from its first user
// turn: the content truncated to 50 characters, with an ellipsis marker when
// truncated. Runs on the rune level so multibyte content is never split.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}
