package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"memochat/internal/chat"
)

// RenderMarkdown renders markdown with Glamour, falling back to the raw text
// when rendering is unavailable.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// renderTranscript formats the transcript for the chat viewport. Pending
// entries are dimmed so the user can tell an unacknowledged send apart.
func renderTranscript(messages []chat.Message, theme Theme, width int, markdown bool) string {
	if len(messages) == 0 {
		return theme.MutedStyle.Render("  No messages yet. Type below to start.")
	}

	var b strings.Builder
	for _, msg := range messages {
		switch {
		case msg.Pending():
			b.WriteString(theme.UserStyle.Render("You"))
			b.WriteString(theme.PendingStyle.Render(" (sending...)"))
			b.WriteString("\n")
			b.WriteString(theme.PendingStyle.Render(msg.Content))
		case msg.Role == chat.RoleUser:
			b.WriteString(theme.UserStyle.Render("You"))
			b.WriteString(renderTimestamp(msg, theme))
			b.WriteString("\n")
			b.WriteString(msg.Content)
		default:
			label := "Assistant"
			if msg.ModelUsed != "" {
				label += " · " + msg.ModelUsed
			}
			b.WriteString(theme.AssistantStyle.Render(label))
			b.WriteString(renderTimestamp(msg, theme))
			b.WriteString("\n")
			if markdown {
				b.WriteString(RenderMarkdown(msg.Content, width))
			} else {
				b.WriteString(msg.Content)
			}
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTimestamp(msg chat.Message, theme Theme) string {
	if msg.Timestamp.IsZero() {
		return ""
	}
	return theme.MutedStyle.Render("  " + msg.Timestamp.Local().Format("15:04"))
}

func renderMemoryList(items []chat.Memory, cursor int, theme Theme) string {
	if len(items) == 0 {
		return theme.MutedStyle.Render("  No memories stored.")
	}

	var b strings.Builder
	for i, item := range items {
		line := " " + memoTypeLabel(item.MemoType) + "  " + firstLine(item.Content)
		if i == cursor {
			line = theme.SelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func memoTypeLabel(memoType string) string {
	switch memoType {
	case chat.MemoryTypeCore:
		return "[core]"
	case chat.MemoryTypeEnvironment:
		return "[env] "
	default:
		return "[?]   "
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
