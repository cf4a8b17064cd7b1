// Package commands implements the bot's slash commands and the callback
// event manager. Commands are registered in an explicit static registry and
// routed from the event bus.
package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/models"
	"github.com/calloutkit/calloutbot/internal/render"
	"github.com/calloutkit/calloutbot/internal/session"
	"github.com/calloutkit/calloutbot/internal/store"
)

// CalloutSource serves the cached open callouts.
type CalloutSource interface {
	Callouts() []models.Callout
	Callout(slug string) (models.Callout, bool)
}

// ResponseSubmitter delivers a grouped answer set to the content system.
type ResponseSubmitter interface {
	SubmitResponse(ctx context.Context, slug string, answers models.CalloutResponseAnswers, guest *models.Subscriber) error
}

// Deps bundles the collaborators shared by all commands.
type Deps struct {
	Comm      *session.Communication
	Renderer  *render.Renderer
	Source    CalloutSource
	Submitter ResponseSubmitter
	Store     store.Store
}

// Command is one slash command. Immediate commands run inline on the
// dispatch goroutine and must not block; all others run on their own
// goroutine so they can hold conversations.
type Command interface {
	Name() string
	Immediate() bool
	Handle(ctx context.Context, sess *models.Session, ev *models.Event) error
}

// Registry holds the static command set and routes bus events to it.
type Registry struct {
	deps     *Deps
	commands map[string]Command
}

// NewRegistry builds the full command set.
func NewRegistry(deps *Deps) *Registry {
	r := &Registry{deps: deps, commands: make(map[string]Command)}
	for _, cmd := range []Command{
		&startCommand{deps},
		&helpCommand{deps},
		&listCommand{deps},
		&respondCommand{deps},
		&cancelCommand{deps},
		&resetCommand{deps},
	} {
		r.commands[cmd.Name()] = cmd
	}
	return r
}

// Attach registers the registry's routers on the bus. The message router
// listens on the broadest scope so that immediate commands (cancel, reset)
// observe an event before any chat-specific reply waiter does.
func (r *Registry) Attach(bus *events.Dispatcher) {
	bus.On("message", r.routeMessage)
	bus.On("callback:callout-respond", r.routeRespondCallback)
}

func (r *Registry) routeMessage(ctx context.Context, desc events.Descriptor, ev *models.Event) {
	if desc.Subcategory != "command" || ev == nil || ev.Message == nil {
		return
	}
	name, _, _ := strings.Cut(desc.PayloadKey, "@")
	cmd, ok := r.commands[name]
	if !ok {
		slog.Debug("Registry.routeMessage: unknown command", "command", name, "chatID", ev.Message.ChatID)
		return
	}

	sessions := r.deps.Comm.Sessions()
	sess := sessions.Get(ev.Message.ChatID)
	sessions.SetContext(ev.Message.ChatID, ev)
	if cmd.Immediate() {
		r.run(ctx, cmd, sess, ev)
		return
	}
	go r.run(ctx, cmd, sess, ev)
}

func (r *Registry) routeRespondCallback(ctx context.Context, desc events.Descriptor, ev *models.Event) {
	if ev == nil || ev.Callback == nil {
		return
	}
	_, slug, found := strings.Cut(ev.Callback.Data, ":")
	if !found || slug == "" {
		slog.Warn("Registry.routeRespondCallback: malformed callback data", "data", ev.Callback.Data)
		return
	}

	sessions := r.deps.Comm.Sessions()
	sess := sessions.Get(ev.Callback.ChatID)
	sessions.SetContext(ev.Callback.ChatID, ev)
	respond := &respondCommand{r.deps}
	go func() {
		if err := respond.respond(ctx, sess, slug); err != nil {
			slog.Error("Registry.routeRespondCallback: respond flow failed", "error", err, "chatID", sess.ChatID, "slug", slug)
		}
	}()
}

func (r *Registry) run(ctx context.Context, cmd Command, sess *models.Session, ev *models.Event) {
	if err := cmd.Handle(ctx, sess, ev); err != nil {
		slog.Error("Registry.run: command failed", "error", err, "command", cmd.Name(), "chatID", sess.ChatID)
	}
}

// rememberSubscriber upserts the sender as a subscriber, preserving an
// earlier anonymity choice.
func rememberSubscriber(ctx context.Context, deps *Deps, msg *models.Message) {
	if msg == nil || msg.From == nil || deps.Store == nil {
		return
	}
	now := time.Now()
	sub := models.Subscriber{
		ChatID:    msg.ChatID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := deps.Store.GetSubscriber(ctx, msg.ChatID); err == nil {
		sub.Anonymous = existing.Anonymous
		sub.CreatedAt = existing.CreatedAt
	}
	if err := deps.Store.SaveSubscriber(ctx, sub); err != nil {
		slog.Warn("commands.rememberSubscriber: failed to save subscriber", "error", err, "chatID", msg.ChatID)
	}
}
