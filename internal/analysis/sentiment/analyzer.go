// Package sentiment provides a stateless keyword-count sentiment tag used by
// the transport layer. It is deliberately simple; no model call is involved.
package sentiment

import "strings"

// Label is the three-way sentiment tag.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

var keywordBuckets = map[Label][]string{
	Positive: {
		"good", "great", "happy", "excited", "love", "awesome",
		"amazing", "thanks", "thank you", "fun", "nice", "cool",
	},
	Negative: {
		"bad", "sad", "tired", "difficult", "hard", "frustrated",
		"angry", "upset", "hate", "boring", "confused", "stuck",
	},
}

// Analyze counts keyword occurrences and tags the text. Ties and empty
// input are neutral.
func Analyze(text string) Label {
	lower := strings.ToLower(text)

	score := func(label Label) int {
		n := 0
		for _, word := range keywordBuckets[label] {
			if strings.Contains(lower, word) {
				n++
			}
		}
		return n
	}

	pos := score(Positive)
	neg := score(Negative)

	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}
