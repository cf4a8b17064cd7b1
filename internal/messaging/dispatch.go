package messaging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/calloutkit/calloutbot/internal/classify"
	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/models"
)

// DescriptorFor classifies one inbound event into a routing descriptor.
//
// Messages get a subcategory by payload kind; slash commands additionally
// carry the command as payload key so command handlers can subscribe to
// "message:/name". Callback presses carry the part of their data before the
// first separator as payload key.
func DescriptorFor(ev *models.Event) events.Descriptor {
	switch {
	case ev == nil:
		return events.Descriptor{}
	case ev.Callback != nil:
		desc := events.Descriptor{Category: "callback", UserID: ev.Callback.ChatID}
		if key, _, found := strings.Cut(ev.Callback.Data, ":"); found {
			desc.PayloadKey = key
		} else if ev.Callback.Data != "" {
			desc.PayloadKey = ev.Callback.Data
		}
		return desc
	case ev.Message != nil:
		desc := events.Descriptor{Category: "message", UserID: ev.Message.ChatID}
		desc.Subcategory = messageKind(ev.Message)
		if desc.Subcategory == "command" {
			command, _, _ := strings.Cut(strings.TrimSpace(ev.Message.Text), " ")
			desc.PayloadKey = command
		}
		return desc
	default:
		return events.Descriptor{}
	}
}

func messageKind(msg *models.Message) string {
	switch {
	case strings.HasPrefix(strings.TrimSpace(msg.Text), "/"):
		return "command"
	case classify.IsPhotoFile(msg):
		return "photo"
	case classify.IsDocumentFile(msg, ""):
		return "document"
	case classify.IsVideoFile(msg):
		return "video"
	case classify.IsAudioFile(msg):
		return "audio"
	case classify.IsAddress(msg):
		return "address"
	case classify.IsLocation(msg):
		return "location"
	case classify.IsContact(msg):
		return "contact"
	default:
		return "text"
	}
}

// DispatchLoop drains the service's event stream and emits each event on the
// bus. It returns when the stream closes or the context ends. Run it on its
// own goroutine; emission itself is synchronous, so ordering guarantees of
// the dispatcher hold for all events of the stream.
func DispatchLoop(ctx context.Context, svc Service, bus *events.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("DispatchLoop: context ended, stopping")
			return
		case ev, ok := <-svc.Events():
			if !ok {
				slog.Info("DispatchLoop: event stream closed, stopping")
				return
			}
			desc := DescriptorFor(&ev)
			if desc.Category == "" {
				slog.Warn("DispatchLoop: dropping unclassifiable event")
				continue
			}
			bus.Emit(ctx, desc, &ev)
		}
	}
}
