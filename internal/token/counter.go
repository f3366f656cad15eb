// Package token adapts token counting behind a small interface so the
// history trimmer stays pure with respect to the counting scheme.
package token

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter maps text to a deterministic integer cost.
type Counter interface {
	Count(text string) int
}

// DefaultEncoding matches the encoding the completion models tokenize with.
const DefaultEncoding = "cl100k_base"

// TiktokenCounter counts with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, defaulting to cl100k_base.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter is the fallback scheme used when the BPE assets are not
// available: roughly four runes per token, never less than one for non-empty
// text. Also the cheap deterministic counter for tests.
type EstimateCounter struct{}

// Count estimates the token cost of text.
func (EstimateCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	tokens := n / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

// Count invokes the wrapped function.
func (f CounterFunc) Count(text string) int { return f(text) }
