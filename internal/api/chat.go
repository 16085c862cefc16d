package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"memochat/internal/chat"
)

// DefaultHistoryLimit matches the backend's default page size.
const DefaultHistoryLimit = 50

type sendBody struct {
	Content   string `json:"content"`
	Reasoning bool   `json:"reasoning"`
}

// FetchHistory loads up to limit messages of a session's transcript, oldest
// first, skipping offset entries. limit <= 0 uses the backend default.
func (c *Client) FetchHistory(ctx context.Context, sessionID string, limit, offset int) (chat.History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query := url.Values{
		"limit": {strconv.Itoa(limit)},
		"skip":  {strconv.Itoa(offset)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/chat/"+sessionID+"/messages", query, nil, nil)
	if err != nil {
		return chat.History{}, err
	}
	var history chat.History
	if err := c.do(req, &history); err != nil {
		return chat.History{}, err
	}
	return history, nil
}

// SendMessage posts a user message and returns the assistant's reply. The
// user message itself is persisted server-side and is not echoed back.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string, reasoning bool) (chat.Message, error) {
	body := sendBody{Content: content, Reasoning: reasoning}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat/"+sessionID+"/messages", nil, body, nil)
	if err != nil {
		return chat.Message{}, err
	}
	var reply chat.Message
	if err := c.do(req, &reply); err != nil {
		return chat.Message{}, err
	}
	return reply, nil
}
