package chat

import "time"

// Turn roles. The completion provider additionally understands a system
// role, but stored turns are only ever user or assistant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation. Immutable once stored; turns are
// only deleted en masse by a session clear or a session delete.
type Turn struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"sessionId"`
	Role                string    `json:"role"`
	Content             string    `json:"content"`
	CreatedAt           time.Time `json:"createdAt"`
	VoiceUsed           string    `json:"voiceUsed,omitempty"`
	ResponseTimeSeconds float64   `json:"responseTimeSeconds,omitempty"`
}
