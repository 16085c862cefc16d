package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"memochat/internal/api"
	"memochat/internal/chat"
	"memochat/internal/localstate"
	"memochat/internal/logging"
)

// Manager owns the bearer token lifecycle: loading a persisted token on
// startup, storing a fresh one after login, and clearing it on logout or
// when the server rejects it. It implements api.TokenSource, so the HTTP
// client always sees the current token.
type Manager struct {
	mu    sync.Mutex
	token string
	user  chat.User

	store  *localstate.Store
	client *api.Client
}

// NewManager loads any persisted token from the state store. The API client
// is attached separately because it needs the manager as its token source.
func NewManager(store *localstate.Store) (*Manager, error) {
	m := &Manager{store: store}
	if store != nil {
		token, err := store.Get(localstate.KeyToken)
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		m.token = token
	}
	return m, nil
}

// SetClient attaches the API client used for login, register and verify.
func (m *Manager) SetClient(client *api.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = client
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// LoggedIn reports whether a token is present. It says nothing about whether
// the server still accepts it; Verify answers that.
func (m *Manager) LoggedIn() bool {
	return m.Token() != ""
}

// User returns the profile fetched by the last successful Login or Verify.
func (m *Manager) User() chat.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Login exchanges credentials for a token, persists it, and fetches the
// profile so the UI can greet the user.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &api.ValidationError{Reason: "username is empty"}
	}
	if password == "" {
		return &api.ValidationError{Reason: "password is empty"}
	}

	client := m.clientRef()
	token, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	m.setToken(token.AccessToken)
	if err := m.persistToken(token.AccessToken); err != nil {
		logging.ErrorWithFields("persist token", logging.Fields{"error": err.Error()})
	}

	user, err := client.Profile(ctx)
	if err != nil {
		// Token is valid; a profile fetch hiccup should not block login.
		logging.WarnWithFields("profile fetch after login", logging.Fields{"error": err.Error()})
		return nil
	}
	m.setUser(user)
	return nil
}

// Register creates an account and logs straight in with the same credentials.
func (m *Manager) Register(ctx context.Context, reg api.RegisterRequest) error {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" {
		return &api.ValidationError{Reason: "username is empty"}
	}
	if reg.Email == "" {
		return &api.ValidationError{Reason: "email is empty"}
	}
	if reg.Password == "" {
		return &api.ValidationError{Reason: "password is empty"}
	}

	if _, err := m.clientRef().Register(ctx, reg); err != nil {
		return err
	}
	return m.Login(ctx, reg.Username, reg.Password)
}

// Verify checks a persisted token against the server. On a 401 the token is
// cleared so the UI falls back to the login screen; other errors (network,
// server) leave the token alone.
func (m *Manager) Verify(ctx context.Context) error {
	if !m.LoggedIn() {
		return &api.AuthError{Detail: "not logged in"}
	}

	user, err := m.clientRef().Profile(ctx)
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			m.clear()
		}
		return err
	}
	m.setUser(user)
	return nil
}

// UpdateProfile applies partial profile changes and caches the returned
// profile so User reflects them immediately.
func (m *Manager) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	if !m.LoggedIn() {
		return &api.AuthError{Detail: "not logged in"}
	}
	user, err := m.clientRef().UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	m.setUser(user)
	return nil
}

// Logout drops the token locally. There is no server-side session to revoke.
func (m *Manager) Logout() {
	m.clear()
}

func (m *Manager) clientRef() *api.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *Manager) setUser(user chat.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = chat.User{}
	if m.store != nil {
		if err := m.store.Delete(localstate.KeyToken); err != nil {
			logging.ErrorWithFields("clear token", logging.Fields{"error": err.Error()})
		}
	}
}

func (m *Manager) persistToken(token string) error {
	if m.store == nil {
		return nil
	}
	return m.store.Set(localstate.KeyToken, token)
}
