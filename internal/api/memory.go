package api

import (
	"context"
	"net/http"
	"net/url"

	"memochat/internal/chat"
)

type memoryCreateBody struct {
	Content  string `json:"content"`
	MemoType string `json:"memo_type"`
}

type memoryUpdateBody struct {
	Content  string `json:"content,omitempty"`
	MemoType string `json:"memo_type,omitempty"`
}

// ListMemories returns memory items, optionally filtered by memo_type.
func (c *Client) ListMemories(ctx context.Context, memoType string) ([]chat.Memory, error) {
	var query url.Values
	if memoType != "" {
		query = url.Values{"memo_type": {memoType}}
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/memory", query, nil, nil)
	if err != nil {
		return nil, err
	}
	var memories []chat.Memory
	if err := c.do(req, &memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// CreateMemory stores a new memory item.
func (c *Client) CreateMemory(ctx context.Context, content, memoType string) (chat.Memory, error) {
	body := memoryCreateBody{Content: content, MemoType: memoType}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/memory", nil, body, nil)
	if err != nil {
		return chat.Memory{}, err
	}
	var memory chat.Memory
	if err := c.do(req, &memory); err != nil {
		return chat.Memory{}, err
	}
	return memory, nil
}

// UpdateMemory changes content and/or memo_type of an existing item. Empty
// fields are left untouched server-side.
func (c *Client) UpdateMemory(ctx context.Context, id, content, memoType string) (chat.Memory, error) {
	body := memoryUpdateBody{Content: content, MemoType: memoType}
	req, err := c.newRequest(ctx, http.MethodPut, "/api/memory/"+id, nil, body, nil)
	if err != nil {
		return chat.Memory{}, err
	}
	var memory chat.Memory
	if err := c.do(req, &memory); err != nil {
		return chat.Memory{}, err
	}
	return memory, nil
}

// DeleteMemory removes a memory item.
func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/memory/"+id, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
