package tokens

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"memochat/internal/chat"
)

// Counter estimates token usage for the composer and the transcript. It uses
// tiktoken when the BPE data is available and a character heuristic when not
// (offline environments lack the cache).
type Counter struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	fallback     bool
	mu           sync.RWMutex
}

var (
	defaultCounter     *Counter
	defaultCounterOnce sync.Once
)

// Default returns the shared counter with the cl100k_base encoding.
func Default() *Counter {
	defaultCounterOnce.Do(func() {
		defaultCounter = NewCounter("cl100k_base")
	})
	return defaultCounter
}

func NewCounter(encodingName string) *Counter {
	c := &Counter{encodingName: encodingName}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		c.fallback = true
		return c
	}
	c.encoder = enc
	return c
}

// CountText counts tokens in a single string.
func (c *Counter) CountText(text string) int {
	if text == "" {
		return 0
	}
	if c.fallback {
		return heuristicCount(text)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.encoder.Encode(text, nil, nil))
}

// CountTranscript sums the transcript's tokens with a small per-message
// envelope overhead.
func (c *Counter) CountTranscript(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		total += 4
		total += c.CountText(msg.Content)
		total += c.CountText(msg.Role)
	}
	return total
}

// Precise reports whether tiktoken is in use rather than the heuristic.
func (c *Counter) Precise() bool {
	return !c.fallback
}

func (c *Counter) EncodingName() string {
	return c.encodingName
}

// heuristicCount approximates mixed CJK/ASCII text: CJK runs about 1.5
// tokens per character, ASCII about 4 characters per token.
func heuristicCount(text string) int {
	cjk := 0
	ascii := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			ascii++
		}
	}
	estimate := int(float64(cjk)*1.5 + float64(ascii)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}
