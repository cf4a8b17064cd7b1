// Package telegram wraps the telego client for the Telegram Bot API.
//
// It converts long-polling updates into transport-neutral events and renders
// outbound messages, keyboards and photos.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/calloutkit/calloutbot/internal/models"
)

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token       string
	PollTimeout int // long polling timeout in seconds
}

// Option defines a configuration option for the Telegram client.
type Option func(*Opts)

// WithToken sets the bot API token.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithPollTimeout sets the long polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(o *Opts) {
		o.PollTimeout = seconds
	}
}

// API is the slice of the telego bot the service uses. Tests substitute a
// fake; production wiring passes *telego.Bot.
type API interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, opts ...telego.LongPollingOption) (<-chan telego.Update, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
}

// Service implements messaging.Service on top of the Telegram Bot API.
type Service struct {
	api     API
	opts    Opts
	events  chan models.Event
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewService creates a connected Telegram service, applying any provided
// options.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram service requires a bot token")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}

	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		slog.Error("Telegram.NewService: failed to create bot", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram.NewService: bot created")
	return NewServiceWithAPI(bot, cfg), nil
}

// NewServiceWithAPI creates a service around an existing API implementation.
func NewServiceWithAPI(api API, cfg Opts) *Service {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	return &Service{
		api:     api,
		opts:    cfg,
		events:  make(chan models.Event, 64),
		stopped: make(chan struct{}),
	}
}

// Start begins long polling and converting updates. It returns once polling
// is established; conversion runs on a background goroutine until Stop is
// called or the context ends.
func (s *Service) Start(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	updates, err := s.api.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout: s.opts.PollTimeout,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	go func() {
		defer close(s.stopped)
		defer close(s.events)
		for update := range updates {
			ev, ok := s.convert(pollCtx, update)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
			case <-pollCtx.Done():
				return
			}
		}
	}()

	slog.Info("Telegram.Start: long polling started", "timeout", s.opts.PollTimeout)
	return nil
}

// Stop ends long polling and closes the events channel.
func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
		<-s.stopped
	}
	slog.Info("Telegram.Stop: service stopped")
	return nil
}

// Events returns the inbound event stream.
func (s *Service) Events() <-chan models.Event {
	return s.events
}

// ValidateAndCanonicalizeChatID parses a raw recipient into a numeric chat
// ID.
func (s *Service) ValidateAndCanonicalizeChatID(recipient string) (int64, error) {
	trimmed := strings.TrimSpace(recipient)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty recipient", models.ErrInvalidChatID)
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidChatID, recipient)
	}
	return id, nil
}

// convert maps one update to a transport-neutral event. Updates the bot does
// not handle yield ok=false. Callback presses are acknowledged immediately
// so the client stops showing a progress indicator.
func (s *Service) convert(ctx context.Context, update telego.Update) (models.Event, bool) {
	switch {
	case update.Message != nil:
		return models.Event{Message: convertMessage(update.Message)}, true
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if err := s.api.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
			slog.Warn("Telegram.convert: failed to answer callback query", "error", err)
		}
		msg, ok := cq.Message.(*telego.Message)
		if !ok || msg == nil {
			slog.Warn("Telegram.convert: callback query without accessible message, dropping", "callbackID", cq.ID)
			return models.Event{}, false
		}
		return models.Event{Callback: &models.CallbackPress{
			ID:     cq.ID,
			ChatID: msg.Chat.ID,
			From:   convertUser(&cq.From),
			Data:   cq.Data,
		}}, true
	default:
		return models.Event{}, false
	}
}

func convertMessage(msg *telego.Message) *models.Message {
	out := &models.Message{
		ID:      msg.MessageID,
		ChatID:  msg.Chat.ID,
		From:    convertUser(msg.From),
		Text:    msg.Text,
		Caption: msg.Caption,
		Time:    msg.Date,
	}
	if msg.Document != nil {
		out.Document = &models.FileRef{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
		}
	}
	for _, p := range msg.Photo {
		out.Photo = append(out.Photo, models.FileRef{FileID: p.FileID})
	}
	if msg.Audio != nil {
		out.Audio = &models.FileRef{
			FileID:   msg.Audio.FileID,
			FileName: msg.Audio.FileName,
			MimeType: msg.Audio.MimeType,
		}
	}
	if msg.Voice != nil {
		out.Audio = &models.FileRef{
			FileID:   msg.Voice.FileID,
			MimeType: msg.Voice.MimeType,
		}
	}
	if msg.Video != nil {
		out.Video = &models.FileRef{
			FileID:   msg.Video.FileID,
			FileName: msg.Video.FileName,
			MimeType: msg.Video.MimeType,
		}
	}
	if msg.Location != nil {
		out.Location = &models.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}
	}
	if msg.Venue != nil {
		out.Venue = &models.Venue{
			Location: models.Location{
				Latitude:  msg.Venue.Location.Latitude,
				Longitude: msg.Venue.Location.Longitude,
			},
			Title:   msg.Venue.Title,
			Address: msg.Venue.Address,
		}
	}
	if msg.Contact != nil {
		out.Contact = &models.Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			FirstName:   msg.Contact.FirstName,
			LastName:    msg.Contact.LastName,
		}
	}
	return out
}

func convertUser(u *telego.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}
