package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/calloutkit/calloutbot/internal/models"
)

type startCommand struct {
	deps *Deps
}

func (c *startCommand) Name() string    { return "/start" }
func (c *startCommand) Immediate() bool { return false }

func (c *startCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	rememberSubscriber(ctx, c.deps, ev.Message)

	name := ""
	if ev.Message.From != nil {
		name = ev.Message.From.FirstName
	}
	c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateStart)
	return c.deps.Comm.Send(ctx, sess.ChatID,
		c.deps.Renderer.Message("start.welcome", map[string]string{"name": name}))
}

type helpCommand struct {
	deps *Deps
}

func (c *helpCommand) Name() string    { return "/help" }
func (c *helpCommand) Immediate() bool { return false }

func (c *helpCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	return c.deps.Comm.Send(ctx, sess.ChatID, c.deps.Renderer.Message("help.text", nil))
}

type listCommand struct {
	deps *Deps
}

func (c *listCommand) Name() string    { return "/list" }
func (c *listCommand) Immediate() bool { return false }

// Handle shows the numbered callout list, waits for the user to pick one,
// and shows its details.
func (c *listCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	callouts := c.deps.Source.Callouts()
	list, err := c.deps.Renderer.CalloutList(callouts)
	if err != nil {
		return err
	}
	if err := c.deps.Comm.Send(ctx, sess.ChatID, list); err != nil {
		return err
	}
	if list.Accepted.Type == models.ReplayNone {
		return nil
	}
	c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateCalloutList)

	replies, err := c.deps.Comm.WaitForRepliesUntilDone(ctx, sess, list.Accepted, c.deps.Renderer.NotAccepted)
	if err != nil {
		if errors.Is(err, models.ErrWaitAborted) {
			return nil
		}
		return err
	}
	slug := replies[len(replies)-1].Value

	callout, ok := c.deps.Source.Callout(slug)
	if !ok {
		slog.Warn("listCommand: selected callout vanished from cache", "slug", slug, "chatID", sess.ChatID)
		return c.deps.Comm.Send(ctx, sess.ChatID,
			c.deps.Renderer.Message("respond.unknown", map[string]string{"slug": slug}))
	}

	c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateCalloutDetails)
	return c.deps.Comm.Send(ctx, sess.ChatID, c.deps.Renderer.CalloutDetail(callout))
}

type cancelCommand struct {
	deps *Deps
}

func (c *cancelCommand) Name() string    { return "/cancel" }
func (c *cancelCommand) Immediate() bool { return true }

// Handle aborts the chat's pending reply wait, if any. It runs inline on
// the dispatch goroutine so the abort is visible before the waiter wakes
// for this very message.
func (c *cancelCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	key := "cancel.nothing"
	if c.deps.Comm.Cancel(sess) {
		key = "cancel.done"
		c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateInitial)
	}
	// Sending must not block dispatch.
	go func() {
		if err := c.deps.Comm.Send(context.WithoutCancel(ctx), sess.ChatID, c.deps.Renderer.Message(key, nil)); err != nil {
			slog.Warn("cancelCommand: failed to confirm", "error", err, "chatID", sess.ChatID)
		}
	}()
	return nil
}

type resetCommand struct {
	deps *Deps
}

func (c *resetCommand) Name() string    { return "/reset" }
func (c *resetCommand) Immediate() bool { return true }

// Handle cancels any pending wait and returns the session to its initial
// state. Running it twice in a row is safe.
func (c *resetCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	c.deps.Comm.Reset(ctx, sess)
	go func() {
		if err := c.deps.Comm.Send(context.WithoutCancel(ctx), sess.ChatID, c.deps.Renderer.Message("reset.done", nil)); err != nil {
			slog.Warn("resetCommand: failed to confirm", "error", err, "chatID", sess.ChatID)
		}
	}()
	return nil
}
