package api

import (
	"context"
	"net/http"

	"memochat/internal/chat"
)

type sessionBody struct {
	Name string `json:"name"`
}

// ListSessions returns all sessions owned by the authenticated user, in
// server order.
func (c *Client) ListSessions(ctx context.Context) ([]chat.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/sessions", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var sessions []chat.Session
	if err := c.do(req, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a named session.
func (c *Client) CreateSession(ctx context.Context, name string) (chat.Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/sessions", nil, sessionBody{Name: name}, nil)
	if err != nil {
		return chat.Session{}, err
	}
	var session chat.Session
	if err := c.do(req, &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// UpdateSession renames a session.
func (c *Client) UpdateSession(ctx context.Context, id, name string) (chat.Session, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/sessions/"+id, nil, sessionBody{Name: name}, nil)
	if err != nil {
		return chat.Session{}, err
	}
	var session chat.Session
	if err := c.do(req, &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// DeleteSession deletes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/sessions/"+id, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
