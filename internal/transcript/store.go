package transcript

import (
	"sync"

	"memochat/internal/chat"
)

// Store holds the in-memory transcript of the active session. It is a cache
// re-derived from history fetches and send reconciliations; the server owns
// the data, except for transient pending entries.
//
// Loads are guarded by a generation counter so that a slow fetch for a
// previously selected session can never overwrite the transcript of the
// session selected after it. The late result is simply discarded.
type Store struct {
	mu        sync.Mutex
	sessionID string
	messages  []chat.Message
	loadGen   uint64
}

func NewStore() *Store {
	return &Store{}
}

// SessionID returns the session the transcript currently belongs to.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Messages returns a copy of the transcript, oldest first.
func (s *Store) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// StartLoad registers intent to load sessionID and returns the generation to
// pass to ApplyLoad. An empty sessionID clears the transcript immediately; no
// fetch should follow and the returned generation invalidates in-flight ones.
func (s *Store) StartLoad(sessionID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	s.sessionID = sessionID
	if sessionID == "" {
		s.messages = nil
	}
	return s.loadGen
}

// ApplyLoad replaces the transcript with the fetched history, but only when
// gen is still the most recent StartLoad. Reports whether it applied.
func (s *Store) ApplyLoad(gen uint64, messages []chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return false
	}
	s.messages = make([]chat.Message, len(messages))
	copy(s.messages, messages)
	return true
}

// Append inserts a message at the tail.
func (s *Store) Append(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Replace atomically removes every message matching pred and appends the
// given messages at the tail. Survivors keep their relative order.
func (s *Store) Replace(pred func(chat.Message) bool, messages ...chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !pred(m) {
			kept = append(kept, m)
		}
	}
	s.messages = append(kept, messages...)
}

// PendingCount returns how many unconfirmed optimistic entries are present.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.Pending() {
			n++
		}
	}
	return n
}
