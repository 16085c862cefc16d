package memory

import (
	"context"
	"strings"
	"sync"

	"memochat/internal/api"
	"memochat/internal/chat"
)

// Gateway is the remote memory CRUD surface the manager depends on.
type Gateway interface {
	ListMemories(ctx context.Context, memoType string) ([]chat.Memory, error)
	CreateMemory(ctx context.Context, content, memoType string) (chat.Memory, error)
	UpdateMemory(ctx context.Context, id, content, memoType string) (chat.Memory, error)
	DeleteMemory(ctx context.Context, id string) error
}

// Manager caches the memory panel's items. Every mutation re-lists from the
// server afterwards; the local slice is never the source of truth.
type Manager struct {
	mu      sync.Mutex
	items   []chat.Memory
	filter  string
	gateway Gateway
}

func NewManager(gateway Gateway) *Manager {
	return &Manager{gateway: gateway}
}

// Items returns a copy of the cached items.
func (m *Manager) Items() []chat.Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Memory, len(m.items))
	copy(out, m.items)
	return out
}

// Filter returns the current memo_type scope, "" meaning all types.
func (m *Manager) Filter() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// SetFilter changes the memo_type scope. Callers follow with Refresh.
func (m *Manager) SetFilter(memoType string) error {
	if memoType != "" && !validMemoType(memoType) {
		return &api.ValidationError{Reason: "unknown memo_type: " + memoType}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = memoType
	return nil
}

// Refresh re-lists items under the current filter.
func (m *Manager) Refresh(ctx context.Context) ([]chat.Memory, error) {
	items, err := m.gateway.ListMemories(ctx, m.Filter())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return items, nil
}

// Create stores a new item and refreshes the list.
func (m *Manager) Create(ctx context.Context, content, memoType string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return &api.ValidationError{Reason: "memory content is empty"}
	}
	if memoType == "" {
		memoType = chat.MemoryTypeCore
	}
	if !validMemoType(memoType) {
		return &api.ValidationError{Reason: "unknown memo_type: " + memoType}
	}
	if _, err := m.gateway.CreateMemory(ctx, content, memoType); err != nil {
		return err
	}
	_, err := m.Refresh(ctx)
	return err
}

// Update changes an item's content and refreshes the list.
func (m *Manager) Update(ctx context.Context, id, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return &api.ValidationError{Reason: "memory content is empty"}
	}
	if _, err := m.gateway.UpdateMemory(ctx, id, content, ""); err != nil {
		return err
	}
	_, err := m.Refresh(ctx)
	return err
}

// Delete removes an item and refreshes the list.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.gateway.DeleteMemory(ctx, id); err != nil {
		return err
	}
	_, err := m.Refresh(ctx)
	return err
}

func validMemoType(memoType string) bool {
	return memoType == chat.MemoryTypeCore || memoType == chat.MemoryTypeEnvironment
}
