package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"memochat/internal/api"
	"memochat/internal/chat"
	"memochat/internal/transcript"
)

// --- Tea messages ---

// AuthDoneMsg reports a login, register or startup token verification.
type AuthDoneMsg struct{ Err error }

// SessionsLoadedMsg carries a refreshed session list.
type SessionsLoadedMsg struct {
	Sessions []chat.Session
	Err      error
}

// HistoryLoadedMsg carries a fetched transcript. Gen ties it to the
// StartLoad that requested it; stale results are discarded on arrival.
type HistoryLoadedMsg struct {
	Gen       uint64
	SessionID string
	Messages  []chat.Message
	Err       error
}

// SendDoneMsg reports the resolution of one send.
type SendDoneMsg struct {
	Result transcript.SendResult
	Err    error
}

// SessionMutatedMsg reports a create, rename or delete.
type SessionMutatedMsg struct{ Err error }

// MemoriesLoadedMsg carries the memory panel's items.
type MemoriesLoadedMsg struct {
	Items []chat.Memory
	Err   error
}

// MemoryMutatedMsg reports a memory create, update or delete.
type MemoryMutatedMsg struct{ Err error }

// --- Commands ---

func (a App) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return AuthDoneMsg{Err: a.auth.Login(context.Background(), username, password)}
	}
}

func (a App) registerCmd(reg api.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		return AuthDoneMsg{Err: a.auth.Register(context.Background(), reg)}
	}
}

func (a App) verifyCmd() tea.Cmd {
	return func() tea.Msg {
		return AuthDoneMsg{Err: a.auth.Verify(context.Background())}
	}
}

func (a App) refreshSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.dir.Refresh(context.Background())
		return SessionsLoadedMsg{Sessions: sessions, Err: err}
	}
}

// loadHistoryCmd registers the load with the store synchronously and fetches
// in the command, so a later StartLoad invalidates this fetch's generation.
func (a *App) loadHistoryCmd(sessionID string) tea.Cmd {
	gen := a.store.StartLoad(sessionID)
	if sessionID == "" {
		return nil
	}
	client := a.client
	limit := a.cfg.Chat.HistoryLimit
	return func() tea.Msg {
		history, err := client.FetchHistory(context.Background(), sessionID, limit, 0)
		return HistoryLoadedMsg{Gen: gen, SessionID: sessionID, Messages: history.Messages, Err: err}
	}
}

func (a App) resolveSendCmd(sessionID, content, tempID string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.pipeline.Resolve(context.Background(), sessionID, content, tempID)
		return SendDoneMsg{Result: result, Err: err}
	}
}

func (a App) createSessionCmd(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.dir.Create(context.Background(), name)
		return SessionMutatedMsg{Err: err}
	}
}

func (a App) renameSessionCmd(id, name string) tea.Cmd {
	return func() tea.Msg {
		return SessionMutatedMsg{Err: a.dir.Rename(context.Background(), id, name)}
	}
}

func (a App) deleteSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return SessionMutatedMsg{Err: a.dir.Remove(context.Background(), id)}
	}
}

func (a App) loadMemoriesCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := a.memories.Refresh(context.Background())
		return MemoriesLoadedMsg{Items: items, Err: err}
	}
}

func (a App) createMemoryCmd(content, memoType string) tea.Cmd {
	return func() tea.Msg {
		return MemoryMutatedMsg{Err: a.memories.Create(context.Background(), content, memoType)}
	}
}

func (a App) updateMemoryCmd(id, content string) tea.Cmd {
	return func() tea.Msg {
		return MemoryMutatedMsg{Err: a.memories.Update(context.Background(), id, content)}
	}
}

func (a App) deleteMemoryCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return MemoryMutatedMsg{Err: a.memories.Delete(context.Background(), id)}
	}
}
