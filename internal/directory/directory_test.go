package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"memochat/internal/api"
	"memochat/internal/chat"
)

// fakeBackend serves the session endpoints over an in-memory session list.
type fakeBackend struct {
	mu       sync.Mutex
	sessions []chat.Session
	nextID   int
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(b.sessions)
		case http.MethodPost:
			var body struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			b.nextID++
			s := chat.Session{ID: fmt.Sprintf("sess_new_%d", b.nextID), Name: body.Name}
			b.sessions = append(b.sessions, s)
			_ = json.NewEncoder(w).Encode(s)
		}
	})
	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		idx := -1
		for i, s := range b.sessions {
			if s.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Session not found"}`))
			return
		}
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			b.sessions[idx].Name = body.Name
			_ = json.NewEncoder(w).Encode(b.sessions[idx])
		case http.MethodDelete:
			b.sessions = append(b.sessions[:idx], b.sessions[idx+1:]...)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return mux
}

func newTestDirectory(t *testing.T, backend *fakeBackend) *Directory {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)
	client := api.NewClient(api.Config{BaseURL: server.URL})
	return New(client, nil)
}

func TestDirectory_FirstSessionBecomesActive(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{
		{ID: "sess_a", Name: "alpha"},
		{ID: "sess_b", Name: "beta"},
	}}
	dir := newTestDirectory(t, backend)

	sessions, err := dir.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions=%d, want 2", len(sessions))
	}
	if got := dir.ActiveID(); got != "sess_a" {
		t.Fatalf("ActiveID=%q, want %q", got, "sess_a")
	}
}

func TestDirectory_RefreshKeepsExistingActive(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{
		{ID: "sess_a", Name: "alpha"},
		{ID: "sess_b", Name: "beta"},
	}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	dir.Select("sess_b")
	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := dir.ActiveID(); got != "sess_b" {
		t.Fatalf("ActiveID=%q, want %q", got, "sess_b")
	}
}

func TestDirectory_CreateValidatesName(t *testing.T) {
	dir := newTestDirectory(t, &fakeBackend{})

	_, err := dir.Create(context.Background(), "   ")
	var vErr *api.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %T: %v", err, err)
	}
}

func TestDirectory_CreateSetsActive(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{{ID: "sess_a", Name: "alpha"}}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	created, err := dir.Create(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := dir.ActiveID(); got != created.ID {
		t.Fatalf("ActiveID=%q, want %q", got, created.ID)
	}
	if len(dir.Sessions()) != 2 {
		t.Fatalf("sessions=%d, want 2", len(dir.Sessions()))
	}
}

func TestDirectory_RemoveActiveRepointsToFirst(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{
		{ID: "sess_a", Name: "alpha"},
		{ID: "sess_b", Name: "beta"},
		{ID: "sess_c", Name: "gamma"},
	}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	dir.Select("sess_b")
	if err := dir.Remove(context.Background(), "sess_b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := dir.ActiveID(); got != "sess_a" {
		t.Fatalf("ActiveID=%q, want %q", got, "sess_a")
	}
}

func TestDirectory_RemoveNonActiveKeepsActive(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{
		{ID: "sess_a", Name: "alpha"},
		{ID: "sess_b", Name: "beta"},
	}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := dir.Remove(context.Background(), "sess_b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := dir.ActiveID(); got != "sess_a" {
		t.Fatalf("ActiveID=%q, want %q", got, "sess_a")
	}
}

func TestDirectory_RemoveLastClearsActive(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{{ID: "sess_a", Name: "alpha"}}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := dir.Remove(context.Background(), "sess_a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := dir.ActiveID(); got != "" {
		t.Fatalf("ActiveID=%q, want empty", got)
	}
	if _, ok := dir.Active(); ok {
		t.Fatal("Active should report no session")
	}
}

func TestDirectory_RemoveUnknownID(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{{ID: "sess_a", Name: "alpha"}}}
	dir := newTestDirectory(t, backend)

	err := dir.Remove(context.Background(), "sess_zzz")
	var nfErr *api.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("want NotFoundError, got %T: %v", err, err)
	}
}

func TestDirectory_Rename(t *testing.T) {
	backend := &fakeBackend{sessions: []chat.Session{{ID: "sess_a", Name: "alpha"}}}
	dir := newTestDirectory(t, backend)

	if _, err := dir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := dir.Rename(context.Background(), "sess_a", "renamed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	sessions := dir.Sessions()
	if sessions[0].Name != "renamed" {
		t.Fatalf("Name=%q, want %q", sessions[0].Name, "renamed")
	}
	if got := dir.ActiveID(); got != "sess_a" {
		t.Fatalf("ActiveID=%q, want %q", got, "sess_a")
	}
}
