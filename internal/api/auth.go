package api

import (
	"context"
	"net/http"
	"net/url"

	"memochat/internal/chat"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// ProfileUpdate carries partial profile changes; empty fields are omitted.
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password,omitempty"`
}

// Login exchanges credentials for a bearer token. The endpoint is OAuth2
// password-flow compatible and expects a url-encoded form, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (chat.Token, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", nil, nil, form)
	if err != nil {
		return chat.Token{}, err
	}
	var token chat.Token
	if err := c.do(req, &token); err != nil {
		return chat.Token{}, err
	}
	return token, nil
}

// Register creates a new account. It does not log in; callers chain Login.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) (chat.User, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/register", nil, reg, nil)
	if err != nil {
		return chat.User{}, err
	}
	var user chat.User
	if err := c.do(req, &user); err != nil {
		return chat.User{}, err
	}
	return user, nil
}

// Profile fetches the authenticated user's profile. A 401 here is the
// canonical signal that a persisted token has expired.
func (c *Client) Profile(ctx context.Context) (chat.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/profile/me", nil, nil, nil)
	if err != nil {
		return chat.User{}, err
	}
	var user chat.User
	if err := c.do(req, &user); err != nil {
		return chat.User{}, err
	}
	return user, nil
}

// UpdateProfile applies partial profile changes and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (chat.User, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/profile/me", nil, update, nil)
	if err != nil {
		return chat.User{}, err
	}
	var user chat.User
	if err := c.do(req, &user); err != nil {
		return chat.User{}, err
	}
	return user, nil
}
