package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/messaging"
	"github.com/calloutkit/calloutbot/internal/models"
	"github.com/calloutkit/calloutbot/internal/replay"
)

// NotAcceptedRenderer produces the retry hint sent when a reply does not
// satisfy the pending condition.
type NotAcceptedRenderer func(cond models.ReplayCondition) models.Render

// Communication orchestrates the send/wait cycle of a conversation. At most
// one reply wait may be active per chat; starting a second one fails with
// ErrConcurrentWait. Cancellation is cooperative through the session's abort
// handle.
type Communication struct {
	svc      messaging.Service
	bus      *events.Dispatcher
	sessions *Store

	mu     sync.Mutex
	active map[int64]*models.AbortHandle
}

// NewCommunication creates the communication orchestrator.
func NewCommunication(svc messaging.Service, bus *events.Dispatcher, sessions *Store) *Communication {
	return &Communication{
		svc:      svc,
		bus:      bus,
		sessions: sessions,
		active:   make(map[int64]*models.AbortHandle),
	}
}

// Sessions exposes the underlying session store.
func (c *Communication) Sessions() *Store {
	return c.sessions
}

// Send delivers renders to a chat in order. A failed render is logged and
// does not stop later renders; the combined error is returned after all
// sends were attempted.
func (c *Communication) Send(ctx context.Context, chatID int64, renders ...models.Render) error {
	var errs []error
	for _, render := range renders {
		if err := c.svc.SendRender(ctx, chatID, render); err != nil {
			slog.Error("Communication.Send: render failed", "error", err, "chatID", chatID, "key", render.Key)
			errs = append(errs, err)
			continue
		}
		if render.Keyboard != nil {
			c.sessions.SetKeyboard(ctx, chatID, &models.KeyboardMetadata{
				Inline:  true,
				Options: keyboardOptions(render.Keyboard),
			})
		} else if render.RemoveKeyboard {
			c.sessions.SetKeyboard(ctx, chatID, nil)
		}
	}
	return errors.Join(errs...)
}

func keyboardOptions(kb *models.InlineKeyboard) []string {
	var options []string
	for _, row := range kb.Rows {
		for _, b := range row {
			options = append(options, b.Text)
		}
	}
	return options
}

// WaitForReply blocks until the chat sends a message and returns its
// evaluation against the condition. The result may be a rejection; looping
// until acceptance is the caller's concern (see WaitForRepliesUntilDone).
// Command messages are ignored, they are routed elsewhere. The wait ends
// with ErrWaitAborted when the session's abort handle is triggered.
func (c *Communication) WaitForReply(ctx context.Context, sess *models.Session, cond models.ReplayCondition) (models.ReplayAccepted, error) {
	abort, err := c.beginWait(sess)
	if err != nil {
		return models.ReplayAccepted{}, err
	}
	defer c.endWait(sess)

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-abort.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()

	scope := events.UserScope("message", sess.ChatID)
	for {
		ev, err := c.bus.WaitFor(waitCtx, scope)
		if err != nil {
			if abort.Aborted() {
				return models.ReplayAccepted{}, models.ErrWaitAborted
			}
			return models.ReplayAccepted{}, err
		}
		// The abort may have been triggered by a handler that ran earlier
		// during this very emission.
		if abort.Aborted() {
			return models.ReplayAccepted{}, models.ErrWaitAborted
		}
		if ev == nil || ev.Message == nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(ev.Message.Text), "/") {
			slog.Debug("Communication.WaitForReply: ignoring command during wait", "chatID", sess.ChatID, "text", ev.Message.Text)
			continue
		}
		c.sessions.SetContext(sess.ChatID, ev)
		return replay.Evaluate(ev.Message, cond)
	}
}

// WaitForRepliesUntilDone collects accepted replies for one condition until
// the collection closes: a done or skip sentinel, or the first acceptance of
// a single-reply condition. Rejected replies trigger the not-accepted render
// and the wait continues.
func (c *Communication) WaitForRepliesUntilDone(ctx context.Context, sess *models.Session, cond models.ReplayCondition, notAccepted NotAcceptedRenderer) ([]models.ReplayAccepted, error) {
	var replies []models.ReplayAccepted
	for {
		accepted, err := c.WaitForReply(ctx, sess, cond)
		if err != nil {
			return replies, err
		}
		if !accepted.Accepted {
			if notAccepted != nil {
				if err := c.Send(ctx, sess.ChatID, notAccepted(cond)); err != nil {
					slog.Warn("Communication.WaitForRepliesUntilDone: failed to send retry hint", "error", err, "chatID", sess.ChatID)
				}
			}
			continue
		}
		replies = append(replies, accepted)
		if accepted.IsDoneMessage || accepted.IsSkipMessage {
			return replies, nil
		}
	}
}

// Cancel triggers the chat's active reply wait, if any, and reports whether
// anything was actually cancelled.
func (c *Communication) Cancel(sess *models.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	abort := c.active[sess.ChatID]
	if abort == nil || abort.Aborted() {
		slog.Debug("Communication.Cancel: nothing to cancel", "chatID", sess.ChatID)
		return false
	}
	abort.Trigger()
	slog.Info("Communication.Cancel: wait aborted", "chatID", sess.ChatID)
	return true
}

// Reset cancels any active wait and returns the session to the initial
// state. Resetting an idle session is a no-op apart from the state write;
// calling Reset twice in a row is safe.
func (c *Communication) Reset(ctx context.Context, sess *models.Session) {
	cancelled := c.Cancel(sess)
	c.sessions.SetState(ctx, sess.ChatID, models.ChatStateInitial)
	c.sessions.SetKeyboard(ctx, sess.ChatID, nil)
	slog.Info("Communication.Reset: session reset", "chatID", sess.ChatID, "cancelledWait", cancelled)
}

func (c *Communication) beginWait(sess *models.Session) (*models.AbortHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.active[sess.ChatID]; existing != nil {
		return nil, fmt.Errorf("%w: chat %d already has a pending wait", models.ErrConcurrentWait, sess.ChatID)
	}
	abort := models.NewAbortHandle()
	c.active[sess.ChatID] = abort
	sess.Abort = abort
	return abort, nil
}

func (c *Communication) endWait(sess *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, sess.ChatID)
	sess.Abort = nil
}
