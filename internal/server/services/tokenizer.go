package services

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many model tokens a text costs.
type TokenCounter interface {
	Count(text string) int
}

// RuneEstimate approximates tokens as a quarter of the rune count, rounded up.
type RuneEstimate struct{}

func (RuneEstimate) Count(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TiktokenCounter counts with a BPE encoding loaded on first use. tiktoken-go
// may need to download the encoding, so loading is deferred until a token
// ceiling is actually configured. If loading fails it degrades to
// RuneEstimate.
type TiktokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string) *TiktokenCounter {
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return RuneEstimate{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
