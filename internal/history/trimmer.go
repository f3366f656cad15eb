// Package history implements the context-window management core: bounding a
// conversation to a token budget and assembling the exact message sequence
// sent to the completion provider.
package history

import (
	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/token"
)

// Trim returns the longest contiguous suffix of turns whose cumulative token
// cost fits budget. When everything fits, the input slice is returned as-is.
// The walk runs newest to oldest and stops at the first turn that would
// exceed the budget, so the model always sees the most recent context.
//
// A most-recent turn that alone exceeds the budget yields an empty result;
// turn content is never truncated.
func Trim(turns []chat.Turn, budget int, count token.Counter) []chat.Turn {
	if len(turns) == 0 {
		return turns
	}

	total := 0
	for i := range turns {
		total += count.Count(turns[i].Content)
	}
	if total <= budget {
		return turns
	}

	used := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		cost := count.Count(turns[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}

	return turns[start:]
}
