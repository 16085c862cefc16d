package chat

import (
	"strings"
	"time"
)

// Message roles as reported by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TempIDPrefix marks client-side pending messages that have not been
// acknowledged by the backend. Server-issued ids never carry it.
const TempIDPrefix = "temp-"

// Message is one transcript entry. The wire name for the role field is
// message_type, kept for compatibility with the backend schema.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"message_type"`
	Timestamp time.Time `json:"timestamp"`
	ModelUsed string    `json:"model_used,omitempty"`
	Reasoning bool      `json:"reasoning,omitempty"`
}

// Pending reports whether the message is an unconfirmed optimistic entry.
func (m Message) Pending() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// Session is a named, server-persisted conversation thread.
type Session struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// History is the payload of a chat history fetch.
type History struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"session_id"`
}

// Memory types understood by the backend.
const (
	MemoryTypeCore        = "core_memory"
	MemoryTypeEnvironment = "environment_memory"
)

// Memory is one stored memory item, scoped by memo_type.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	MemoType  string    `json:"memo_type"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the authenticated account profile.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
