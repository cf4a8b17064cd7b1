package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/models"
)

// Watcher polls the content system on a schedule and keeps a local cache of
// open callouts. Changes are announced on the event bus with category
// "callout" and the changed slug as payload key; the event payload is nil
// because no transport event is involved.
type Watcher struct {
	client *Client
	bus    *events.Dispatcher
	cron   *cron.Cron

	mu    sync.RWMutex
	cache map[string]models.Callout
}

// NewWatcher creates a watcher around the content client.
func NewWatcher(client *Client, bus *events.Dispatcher) *Watcher {
	return &Watcher{
		client: client,
		bus:    bus,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		cache:  make(map[string]models.Callout),
	}
}

// Start performs an initial fetch, then polls on the given cron schedule
// (e.g. "@every 5m"). A failed fetch is logged and retried on the next tick;
// the cache keeps serving the last successful result.
func (w *Watcher) Start(ctx context.Context, schedule string) error {
	if err := w.refresh(ctx); err != nil {
		slog.Warn("ContentWatcher.Start: initial fetch failed, continuing with empty cache", "error", err)
	}

	_, err := w.cron.AddFunc(schedule, func() {
		if err := w.refresh(ctx); err != nil {
			slog.Warn("ContentWatcher: refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	slog.Info("ContentWatcher.Start: polling started", "schedule", schedule)
	return nil
}

// Stop stops the polling schedule and waits for a running refresh to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
}

// Callouts returns the cached open callouts.
func (w *Watcher) Callouts() []models.Callout {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.Callout, 0, len(w.cache))
	for _, c := range w.cache {
		out = append(out, c)
	}
	return out
}

// Callout returns one cached callout by slug.
func (w *Watcher) Callout(slug string) (models.Callout, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.cache[slug]
	return c, ok
}

func (w *Watcher) refresh(ctx context.Context) error {
	callouts, err := w.client.List(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]models.Callout, len(callouts))
	for _, c := range callouts {
		fresh[c.Slug] = c
	}

	w.mu.Lock()
	var added, updated, removed []string
	for slug, c := range fresh {
		old, ok := w.cache[slug]
		switch {
		case !ok:
			added = append(added, slug)
		case old.Updated != c.Updated:
			updated = append(updated, slug)
		}
	}
	for slug := range w.cache {
		if _, ok := fresh[slug]; !ok {
			removed = append(removed, slug)
		}
	}
	w.cache = fresh
	w.mu.Unlock()

	for _, slug := range added {
		w.announce(ctx, "added", slug)
	}
	for _, slug := range updated {
		w.announce(ctx, "updated", slug)
	}
	for _, slug := range removed {
		w.announce(ctx, "removed", slug)
	}

	slog.Debug("ContentWatcher.refresh: cache updated",
		"total", len(fresh), "added", len(added), "updated", len(updated), "removed", len(removed))
	return nil
}

func (w *Watcher) announce(ctx context.Context, change, slug string) {
	w.bus.Emit(ctx, events.Descriptor{
		Category:    "callout",
		Subcategory: change,
		PayloadKey:  slug,
	}, nil)
}
