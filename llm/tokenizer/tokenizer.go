// Package tokenizer provides token counting for prompt-size accounting,
// backed by tiktoken with a heuristic fallback when encoding data is
// unavailable (the tiktoken tables are fetched lazily on first use).
package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding covers the GPT-4 family and is a close-enough estimate
// for the other backends; exact counts are not needed, only magnitudes.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a lazily initialized tiktoken encoding.
type Counter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewCounter creates a counter for the given encoding; empty means
// DefaultEncoding.
func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding}
}

func (c *Counter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// Count returns the token count for text, falling back to Estimate when
// the encoding cannot be initialized.
func (c *Counter) Count(text string) int {
	if err := c.init(); err != nil {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate is the encoding-free heuristic: roughly four characters per
// token for English-leaning text, never less than one for non-empty input.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
