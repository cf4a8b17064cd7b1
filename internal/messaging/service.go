// Package messaging defines the narrow transport interface the rest of the
// bot depends on, plus the dispatch loop that turns inbound transport events
// into bus emissions.
package messaging

import (
	"context"

	"github.com/calloutkit/calloutbot/internal/models"
)

// Service abstracts the chat transport. Implementations own the connection
// lifecycle and expose inbound traffic on a channel.
type Service interface {
	// Start opens the transport and begins producing events. It returns
	// once the transport is connected; event production continues until
	// the context ends or Stop is called.
	Start(ctx context.Context) error
	// Stop closes the transport and the events channel.
	Stop() error
	// ValidateAndCanonicalizeChatID parses a raw recipient into a chat ID.
	ValidateAndCanonicalizeChatID(recipient string) (int64, error)
	// SendRender delivers one rendered message to a chat.
	SendRender(ctx context.Context, chatID int64, render models.Render) error
	// Events returns the inbound event stream.
	Events() <-chan models.Event
}
