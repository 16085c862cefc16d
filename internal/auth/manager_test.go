package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"memochat/internal/api"
	"memochat/internal/chat"
	"memochat/internal/localstate"
)

func newTestStore(t *testing.T) *localstate.Store {
	t.Helper()
	store, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func attachBackend(t *testing.T, m *Manager, handler http.Handler) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	m.SetClient(api.NewClient(api.Config{BaseURL: server.URL, Tokens: m}))
}

func okBackend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chat.Token{AccessToken: "tok_1", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/profile/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chat.User{Username: "demo", Email: "demo@example.com"})
	})
	return mux
}

func TestLogin_PersistsToken(t *testing.T) {
	store := newTestStore(t)
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	attachBackend(t, m, okBackend())

	if err := m.Login(context.Background(), "demo", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.Token() != "tok_1" {
		t.Fatalf("Token=%q, want tok_1", m.Token())
	}
	saved, err := store.Get(localstate.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if saved != "tok_1" {
		t.Fatalf("persisted token=%q, want tok_1", saved)
	}
	if m.User().Username != "demo" {
		t.Fatalf("User=%+v", m.User())
	}
}

func TestNewManager_RestoresPersistedToken(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(localstate.KeyToken, "tok_saved"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if !m.LoggedIn() || m.Token() != "tok_saved" {
		t.Fatalf("Token=%q, want tok_saved", m.Token())
	}
}

func TestVerify_ClearsTokenOn401(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(localstate.KeyToken, "tok_stale"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	attachBackend(t, m, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
	}))

	err = m.Verify(context.Background())
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Verify error=%v, want AuthError", err)
	}
	if m.LoggedIn() {
		t.Fatal("token should be cleared after a 401")
	}
	saved, err := store.Get(localstate.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if saved != "" {
		t.Fatalf("persisted token=%q, want deleted", saved)
	}
}

func TestVerify_KeepsTokenOnServerError(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(localstate.KeyToken, "tok_kept"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	attachBackend(t, m, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "db down"})
	}))

	if err := m.Verify(context.Background()); err == nil {
		t.Fatal("Verify should fail against a broken backend")
	}
	if m.Token() != "tok_kept" {
		t.Fatalf("Token=%q, a server error must not log the user out", m.Token())
	}
	saved, _ := store.Get(localstate.KeyToken)
	if saved != "tok_kept" {
		t.Fatalf("persisted token=%q, want tok_kept", saved)
	}
}

func TestVerify_KeepsTokenOnNetworkError(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set(localstate.KeyToken, "tok_kept"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	m.SetClient(api.NewClient(api.Config{BaseURL: server.URL, Tokens: m}))

	err = m.Verify(context.Background())
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Verify error=%v, want NetworkError", err)
	}
	if m.Token() != "tok_kept" {
		t.Fatalf("Token=%q, an unreachable server must not log the user out", m.Token())
	}
}

func TestLogout_DeletesPersistedToken(t *testing.T) {
	store := newTestStore(t)
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	attachBackend(t, m, okBackend())
	if err := m.Login(context.Background(), "demo", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.Logout()
	if m.LoggedIn() {
		t.Fatal("LoggedIn should be false after Logout")
	}
	saved, err := store.Get(localstate.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if saved != "" {
		t.Fatalf("persisted token=%q, want deleted", saved)
	}
}

func TestUpdateProfile_RefreshesCachedUser(t *testing.T) {
	m, err := NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chat.Token{AccessToken: "tok_1"})
	})
	mux.HandleFunc("/api/profile/me", func(w http.ResponseWriter, r *http.Request) {
		user := chat.User{Username: "demo", FullName: "Demo User"}
		if r.Method == http.MethodPut {
			var update api.ProfileUpdate
			_ = json.NewDecoder(r.Body).Decode(&update)
			if update.FullName != "" {
				user.FullName = update.FullName
			}
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	attachBackend(t, m, mux)

	if err := m.Login(context.Background(), "demo", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.UpdateProfile(context.Background(), api.ProfileUpdate{FullName: "Demo Renamed"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got := m.User().FullName; got != "Demo Renamed" {
		t.Fatalf("FullName=%q, want Demo Renamed", got)
	}
}

func TestUpdateProfile_RequiresLogin(t *testing.T) {
	m, err := NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	attachBackend(t, m, okBackend())

	err = m.UpdateProfile(context.Background(), api.ProfileUpdate{FullName: "Nobody"})
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error=%v, want AuthError", err)
	}
}
