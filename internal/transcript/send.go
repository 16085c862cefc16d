package transcript

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"memochat/internal/chat"
)

// SendState tags the outcome of one send invocation.
type SendState int

const (
	SendIdle SendState = iota
	SendOptimistic
	SendReconciled
	SendRolledBack
)

func (s SendState) String() string {
	switch s {
	case SendOptimistic:
		return "optimistic"
	case SendReconciled:
		return "reconciled"
	case SendRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Gateway is the remote send operation the pipeline depends on.
type Gateway interface {
	SendMessage(ctx context.Context, sessionID, content string, reasoning bool) (chat.Message, error)
}

// SendResult reports what one Send invocation did to the transcript.
type SendResult struct {
	State  SendState
	TempID string
	User   chat.Message
	Reply  chat.Message
}

// Pipeline drives one send at a time through optimistic append, remote call
// and reconciliation or rollback. It keeps no state across invocations
// beyond the transcript itself.
type Pipeline struct {
	store     *Store
	gateway   Gateway
	reasoning bool
}

// NewPipeline creates a send pipeline. reasoning is a fixed per-client
// policy, passed through to the backend on every send.
func NewPipeline(store *Store, gateway Gateway, reasoning bool) *Pipeline {
	return &Pipeline{store: store, gateway: gateway, reasoning: reasoning}
}

// Begin is the synchronous half of the protocol. Empty content or no active
// session is a silent no-op (ok=false, transcript untouched); callers wanting
// feedback validate first. Otherwise a pending user message with a fresh temp
// id is appended before any network traffic, so the transcript reflects the
// attempt immediately.
func (p *Pipeline) Begin(sessionID, content string) (tempID string, ok bool) {
	if strings.TrimSpace(content) == "" || sessionID == "" {
		return "", false
	}

	tempID = nextTempID()
	p.store.Append(chat.Message{
		ID:        tempID,
		Content:   content,
		Role:      chat.RoleUser,
		Timestamp: time.Now(),
	})
	return tempID, true
}

// Resolve is the asynchronous half: it issues the remote send and reconciles
// or rolls back. On success the pending entry is atomically replaced by the
// confirmed user message (id derived from the reply's id, server timestamp)
// and the assistant reply, in that order. On failure every pending entry is
// swept, not just this invocation's, and the error is returned.
func (p *Pipeline) Resolve(ctx context.Context, sessionID, content, tempID string) (SendResult, error) {
	reply, err := p.gateway.SendMessage(ctx, sessionID, content, p.reasoning)
	if err != nil {
		p.store.Replace(func(m chat.Message) bool { return m.Pending() })
		return SendResult{State: SendRolledBack, TempID: tempID}, err
	}

	confirmed := chat.Message{
		ID:        "user-" + reply.ID,
		Content:   content,
		Role:      chat.RoleUser,
		Timestamp: reply.Timestamp,
	}
	p.store.Replace(func(m chat.Message) bool { return m.ID == tempID }, confirmed, reply)

	return SendResult{
		State:  SendReconciled,
		TempID: tempID,
		User:   confirmed,
		Reply:  reply,
	}, nil
}

// Send runs both halves back to back, for callers that block anyway.
func (p *Pipeline) Send(ctx context.Context, sessionID, content string) (SendResult, error) {
	tempID, ok := p.Begin(sessionID, content)
	if !ok {
		return SendResult{State: SendIdle}, nil
	}
	return p.Resolve(ctx, sessionID, content, tempID)
}

var (
	tempMu   sync.Mutex
	lastTemp int64
)

// nextTempID derives a process-unique pending id from the wall clock,
// bumping past the previous value when the clock has not advanced.
func nextTempID() string {
	tempMu.Lock()
	defer tempMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastTemp {
		now = lastTemp + 1
	}
	lastTemp = now
	return chat.TempIDPrefix + strconv.FormatInt(now, 10)
}
