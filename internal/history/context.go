package history

import (
	"fmt"

	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/model/persona"
	"github.com/iroha-ai/backend/internal/token"
)

// Message roles understood by the completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Sampling bounds. Overrides outside these are a caller error, unlike voice
// parameters which are coerced.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 2000
)

// Sampling carries optional caller overrides for one request.
type Sampling struct {
	Temperature *float32
	MaxTokens   *int
}

// Resolved sampling parameters after override resolution.
type Resolved struct {
	Temperature float32
	MaxTokens   int
}

// Resolve validates the overrides against declared bounds and falls back to
// the persona defaults where no override is present.
func (s Sampling) Resolve(p persona.Persona) (Resolved, error) {
	out := Resolved{Temperature: p.Temperature, MaxTokens: p.MaxTokens}
	if s.Temperature != nil {
		t := *s.Temperature
		if t < MinTemperature || t > MaxTemperature {
			return Resolved{}, fmt.Errorf("temperature %.2f out of range [%.1f, %.1f]", t, MinTemperature, MaxTemperature)
		}
		out.Temperature = t
	}
	if s.MaxTokens != nil {
		m := *s.MaxTokens
		if m < MinMaxTokens || m > MaxMaxTokens {
			return Resolved{}, fmt.Errorf("maxTokens %d out of range [%d, %d]", m, MinMaxTokens, MaxMaxTokens)
		}
		out.MaxTokens = m
	}
	return out, nil
}

// Builder assembles completion requests: persona instructions first, the
// trimmed history in original order, the new user message last. The provider
// treats position as recency, so this ordering is a hard contract.
type Builder struct {
	counter token.Counter
	budget  int
}

// NewBuilder returns a Builder trimming to budget with the given counter.
func NewBuilder(counter token.Counter, budget int) *Builder {
	return &Builder{counter: counter, budget: budget}
}

// Build produces the ordered message sequence for one completion call.
func (b *Builder) Build(p persona.Persona, turns []chat.Turn, newMessage string) []Message {
	trimmed := Trim(turns, b.budget, b.counter)

	msgs := make([]Message, 0, len(trimmed)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: p.SystemPrompt})
	for _, t := range trimmed {
		switch t.Role {
		case chat.RoleUser:
			msgs = append(msgs, Message{Role: RoleUser, Content: t.Content})
		case chat.RoleAssistant:
			msgs = append(msgs, Message{Role: RoleAssistant, Content: t.Content})
		}
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: newMessage})
	return msgs
}
