package models

import (
	"context"
	"time"
)

// ChatState is the conversational state of a chat. The set is closed;
// transitions are driven by commands and event managers.
type ChatState string

const (
	ChatStateInitial         ChatState = "initial"
	ChatStateStart           ChatState = "start"
	ChatStateCalloutList     ChatState = "callout-list"
	ChatStateCalloutDetails  ChatState = "callout-details"
	ChatStateCalloutAnswer   ChatState = "callout-answer"
	ChatStateCalloutAnswered ChatState = "callout-answered"
)

// KeyboardMetadata records the last inline keyboard sent to a chat so it can
// be removed or replaced later.
type KeyboardMetadata struct {
	MessageID int      `json:"message_id"`
	Inline    bool     `json:"inline"`
	Options   []string `json:"options,omitempty"`
}

// AbortHandle is a per-session cancellation handle. Cancellation is polled,
// not preemptive: waiters observe it at loop boundaries only.
type AbortHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAbortHandle creates a fresh, untriggered abort handle.
func NewAbortHandle() *AbortHandle {
	ctx, cancel := context.WithCancel(context.Background())
	return &AbortHandle{ctx: ctx, cancel: cancel}
}

// Done returns a channel closed once the handle is triggered.
func (h *AbortHandle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Aborted reports whether the handle has been triggered.
func (h *AbortHandle) Aborted() bool {
	select {
	case <-h.ctx.Done():
		return true
	default:
		return false
	}
}

// Trigger requests cancellation of whatever wait is bound to this handle.
func (h *AbortHandle) Trigger() {
	h.cancel()
}

// Session is the per-chat conversational state. It is owned exclusively by
// the session orchestrator; other components receive it by reference for one
// handler invocation only. Ctx and Abort are runtime-only references and are
// never persisted.
type Session struct {
	ChatID         int64
	State          ChatState
	Ctx            *Event
	Abort          *AbortHandle
	LatestKeyboard *KeyboardMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSession creates a session in the initial state for a chat.
func NewSession(chatID int64) *Session {
	now := time.Now()
	return &Session{
		ChatID:    chatID,
		State:     ChatStateInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SessionSnapshot is the persistable subset of a session: state and last
// keyboard only. Runtime references are never persisted.
type SessionSnapshot struct {
	ChatID         int64             `json:"chat_id"`
	State          ChatState         `json:"state"`
	LatestKeyboard *KeyboardMetadata `json:"latest_keyboard,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Snapshot extracts the persistable subset of the session.
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		ChatID:         s.ChatID,
		State:          s.State,
		LatestKeyboard: s.LatestKeyboard,
		UpdatedAt:      s.UpdatedAt,
	}
}
