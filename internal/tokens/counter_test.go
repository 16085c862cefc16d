package tokens

import (
	"testing"

	"memochat/internal/chat"
)

func TestCounter_HeuristicText(t *testing.T) {
	c := &Counter{fallback: true, encodingName: "cl100k_base"}

	if got := c.CountText("Hello world"); got <= 0 {
		t.Fatalf("CountText=%d, want > 0", got)
	}
	if got := c.CountText("你好世界"); got <= 0 {
		t.Fatalf("CountText CJK=%d, want > 0", got)
	}
	if got := c.CountText(""); got != 0 {
		t.Fatalf("CountText empty=%d, want 0", got)
	}
}

func TestCounter_Transcript(t *testing.T) {
	c := &Counter{fallback: true, encodingName: "cl100k_base"}

	messages := []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleAssistant, Content: "hi there"},
	}
	got := c.CountTranscript(messages)
	if got <= 8 {
		t.Fatalf("CountTranscript=%d, want > per-message overhead", got)
	}
}

func TestCounter_Precise(t *testing.T) {
	c := &Counter{fallback: true}
	if c.Precise() {
		t.Fatal("fallback counter must not report precise")
	}
}

func TestHeuristicCount_Mixed(t *testing.T) {
	tests := []string{
		"Hello world, this is a test.",
		"你好世界，这是一个测试。",
		"Mixed 混合 text 文本",
	}
	for _, input := range tests {
		if got := heuristicCount(input); got <= 0 {
			t.Errorf("heuristicCount(%q) = %d, want > 0", input, got)
		}
	}
}
