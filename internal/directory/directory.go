package directory

import (
	"context"
	"strings"
	"sync"

	"memochat/internal/api"
	"memochat/internal/chat"
	"memochat/internal/localstate"
	"memochat/internal/logging"
)

// Directory tracks the user's sessions and which one is active. The active
// reference always points at a session in the current set, or is empty; every
// mutation that could invalidate it repoints it in the same critical section.
type Directory struct {
	mu       sync.Mutex
	sessions []chat.Session
	activeID string

	client *api.Client
	store  *localstate.Store
}

// New creates a directory. store may be nil; when present, the active session
// id is persisted so the next start can restore it.
func New(client *api.Client, store *localstate.Store) *Directory {
	d := &Directory{client: client, store: store}
	if store != nil {
		if saved, err := store.Get(localstate.KeyActiveSession); err == nil {
			d.activeID = saved
		}
	}
	return d
}

// Sessions returns a copy of the current session set, in server order.
func (d *Directory) Sessions() []chat.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]chat.Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// ActiveID returns the active session id, or "" when none is active.
func (d *Directory) ActiveID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeID
}

// Active returns the active session and whether one exists.
func (d *Directory) Active() (chat.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sessions {
		if s.ID == d.activeID {
			return s, true
		}
	}
	return chat.Session{}, false
}

// Refresh fetches the session list. When nothing is active yet, the first
// returned session becomes active; this is first-returned order, not most
// recently updated, and is observable behavior.
func (d *Directory) Refresh(ctx context.Context) ([]chat.Session, error) {
	sessions, err := d.client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = sessions
	if !d.containsLocked(d.activeID) {
		d.setActiveLocked(d.firstIDLocked())
	}
	return sessions, nil
}

// Create creates a named session, refreshes the list and makes the new
// session active.
func (d *Directory) Create(ctx context.Context, name string) (chat.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return chat.Session{}, &api.ValidationError{Reason: "session name is empty"}
	}

	created, err := d.client.CreateSession(ctx, name)
	if err != nil {
		return chat.Session{}, err
	}

	sessions, err := d.client.ListSessions(ctx)
	if err != nil {
		// Created but not listed; keep local state coherent anyway.
		d.mu.Lock()
		d.sessions = append(d.sessions, created)
		d.setActiveLocked(created.ID)
		d.mu.Unlock()
		return created, nil
	}

	d.mu.Lock()
	d.sessions = sessions
	d.setActiveLocked(created.ID)
	d.mu.Unlock()
	return created, nil
}

// Rename changes a session's display name and refreshes the list. The active
// reference is untouched; ids are stable across renames.
func (d *Directory) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &api.ValidationError{Reason: "session name is empty"}
	}
	if _, err := d.client.UpdateSession(ctx, id, name); err != nil {
		return err
	}
	sessions, err := d.client.ListSessions(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()
	return nil
}

// Remove deletes a session and refreshes the list. If the removed session was
// active, the first remaining session becomes active, or none when the list
// is empty; the repoint happens in the same update as the removal, so no
// dangling active reference is ever observable.
func (d *Directory) Remove(ctx context.Context, id string) error {
	if err := d.client.DeleteSession(ctx, id); err != nil {
		return err
	}

	sessions, err := d.client.ListSessions(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	wasActive := d.activeID == id
	d.sessions = sessions
	if wasActive || !d.containsLocked(d.activeID) {
		d.setActiveLocked(d.firstIDLocked())
	}
	return nil
}

// Select reassigns the active reference locally. No remote call, no
// existence check; callers own validation.
func (d *Directory) Select(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setActiveLocked(id)
}

func (d *Directory) containsLocked(id string) bool {
	if id == "" {
		return false
	}
	for _, s := range d.sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (d *Directory) firstIDLocked() string {
	if len(d.sessions) == 0 {
		return ""
	}
	return d.sessions[0].ID
}

func (d *Directory) setActiveLocked(id string) {
	d.activeID = id
	if d.store == nil {
		return
	}
	var err error
	if id == "" {
		err = d.store.Delete(localstate.KeyActiveSession)
	} else {
		err = d.store.Set(localstate.KeyActiveSession, id)
	}
	if err != nil {
		logging.ErrorWithFields("persist active session", logging.Fields{"error": err.Error()})
	}
}
