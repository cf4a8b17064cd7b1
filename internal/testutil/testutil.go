// Package testutil provides shared test doubles for the bot's internal
// packages.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/calloutkit/calloutbot/internal/models"
)

// SentRender records one outbound render captured by the mock service.
type SentRender struct {
	ChatID int64
	Render models.Render
}

// MockMessagingService is an in-memory messaging.Service for tests. Inbound
// events are injected with Inject; outbound renders are captured in order.
type MockMessagingService struct {
	mu      sync.Mutex
	events  chan models.Event
	sent    []SentRender
	sendErr error
}

// NewMockMessagingService creates a mock service with a buffered event
// stream.
func NewMockMessagingService() *MockMessagingService {
	return &MockMessagingService{events: make(chan models.Event, 32)}
}

func (m *MockMessagingService) Start(ctx context.Context) error { return nil }

func (m *MockMessagingService) Stop() error {
	close(m.events)
	return nil
}

func (m *MockMessagingService) Events() <-chan models.Event {
	return m.events
}

func (m *MockMessagingService) ValidateAndCanonicalizeChatID(recipient string) (int64, error) {
	id, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidChatID, recipient)
	}
	return id, nil
}

func (m *MockMessagingService) SendRender(ctx context.Context, chatID int64, render models.Render) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, SentRender{ChatID: chatID, Render: render})
	return nil
}

// Inject feeds one inbound event into the stream.
func (m *MockMessagingService) Inject(ev models.Event) {
	m.events <- ev
}

// InjectText feeds a plain text message from a chat.
func (m *MockMessagingService) InjectText(chatID int64, text string) {
	m.Inject(models.Event{Message: &models.Message{
		ChatID: chatID,
		From:   &models.User{ID: chatID},
		Text:   text,
	}})
}

// Sent returns a copy of the captured renders.
func (m *MockMessagingService) Sent() []SentRender {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentRender, len(m.sent))
	copy(out, m.sent)
	return out
}

// FailSends makes subsequent SendRender calls return the given error.
func (m *MockMessagingService) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}
