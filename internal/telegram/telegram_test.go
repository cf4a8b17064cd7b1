package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/mymmrac/telego"

	"github.com/calloutkit/calloutbot/internal/models"
)

type fakeAPI struct {
	updates      chan telego.Update
	sentMessages []*telego.SendMessageParams
	sentPhotos   []*telego.SendPhotoParams
	answered     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan telego.Update, 8)}
}

func (f *fakeAPI) UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, opts ...telego.LongPollingOption) (<-chan telego.Update, error) {
	return f.updates, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.sentMessages = append(f.sentMessages, params)
	return &telego.Message{MessageID: len(f.sentMessages)}, nil
}

func (f *fakeAPI) SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error) {
	f.sentPhotos = append(f.sentPhotos, params)
	return &telego.Message{MessageID: len(f.sentPhotos)}, nil
}

func (f *fakeAPI) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	f.answered = append(f.answered, params.CallbackQueryID)
	return nil
}

func startedService(t *testing.T) (*Service, *fakeAPI, context.CancelFunc) {
	t.Helper()
	api := newFakeAPI()
	svc := NewServiceWithAPI(api, Opts{PollTimeout: 1})
	ctx, cancel := context.WithCancel(context.Background())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return svc, api, cancel
}

func receiveEvent(t *testing.T, svc *Service) models.Event {
	t.Helper()
	select {
	case ev := <-svc.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return models.Event{}
	}
}

func TestService_ConvertsMessages(t *testing.T) {
	svc, api, cancel := startedService(t)
	defer cancel()

	api.updates <- telego.Update{Message: &telego.Message{
		MessageID: 7,
		Chat:      telego.Chat{ID: 42},
		From:      &telego.User{ID: 42, FirstName: "Ada"},
		Text:      "hello",
		Date:      1700000000,
	}}

	ev := receiveEvent(t, svc)
	if ev.Message == nil {
		t.Fatalf("expected message event, got %+v", ev)
	}
	msg := ev.Message
	if msg.ID != 7 || msg.ChatID != 42 || msg.Text != "hello" || msg.Time != 1700000000 {
		t.Errorf("unexpected converted message: %+v", msg)
	}
	if msg.From == nil || msg.From.FirstName != "Ada" {
		t.Errorf("unexpected sender: %+v", msg.From)
	}
}

func TestService_ConvertsPhotoSizes(t *testing.T) {
	svc, api, cancel := startedService(t)
	defer cancel()

	api.updates <- telego.Update{Message: &telego.Message{
		MessageID: 1,
		Chat:      telego.Chat{ID: 1},
		Photo: []telego.PhotoSize{
			{FileID: "small"},
			{FileID: "large"},
		},
	}}

	ev := receiveEvent(t, svc)
	if len(ev.Message.Photo) != 2 || ev.Message.Photo[1].FileID != "large" {
		t.Errorf("unexpected photo sizes: %+v", ev.Message.Photo)
	}
}

func TestService_ConvertsCallbacksAndAnswers(t *testing.T) {
	svc, api, cancel := startedService(t)
	defer cancel()

	api.updates <- telego.Update{CallbackQuery: &telego.CallbackQuery{
		ID:      "cb-1",
		From:    telego.User{ID: 42, FirstName: "Ada"},
		Data:    "callout-respond:my-slug",
		Message: &telego.Message{MessageID: 3, Chat: telego.Chat{ID: 42}},
	}}

	ev := receiveEvent(t, svc)
	if ev.Callback == nil {
		t.Fatalf("expected callback event, got %+v", ev)
	}
	if ev.Callback.ChatID != 42 || ev.Callback.Data != "callout-respond:my-slug" {
		t.Errorf("unexpected callback: %+v", ev.Callback)
	}
	if len(api.answered) != 1 || api.answered[0] != "cb-1" {
		t.Errorf("expected callback query answered, got %v", api.answered)
	}
}

func TestService_SendRenderParseModes(t *testing.T) {
	api := newFakeAPI()
	svc := NewServiceWithAPI(api, Opts{})
	ctx := context.Background()

	renders := []struct {
		render models.Render
		mode   string
	}{
		{models.Render{Type: models.RenderTypeText, Text: "plain"}, ""},
		{models.Render{Type: models.RenderTypeMarkdown, Text: "md"}, telego.ModeMarkdownV2},
		{models.Render{Type: models.RenderTypeHTML, Text: "<b>h</b>"}, telego.ModeHTML},
	}
	for _, tc := range renders {
		if err := svc.SendRender(ctx, 42, tc.render); err != nil {
			t.Fatalf("SendRender failed: %v", err)
		}
	}

	if len(api.sentMessages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(api.sentMessages))
	}
	for i, tc := range renders {
		if api.sentMessages[i].ParseMode != tc.mode {
			t.Errorf("render %d: parse mode %q, want %q", i, api.sentMessages[i].ParseMode, tc.mode)
		}
	}
}

func TestService_SendRenderKeyboard(t *testing.T) {
	api := newFakeAPI()
	svc := NewServiceWithAPI(api, Opts{})

	render := models.Render{
		Type: models.RenderTypeText,
		Text: "pick one",
		Keyboard: &models.InlineKeyboard{Rows: [][]models.InlineKeyboardButton{
			{{Text: "Respond", Data: "callout-respond:my-slug"}},
		}},
	}
	if err := svc.SendRender(context.Background(), 42, render); err != nil {
		t.Fatalf("SendRender failed: %v", err)
	}

	markup, ok := api.sentMessages[0].ReplyMarkup.(*telego.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard markup, got %T", api.sentMessages[0].ReplyMarkup)
	}
	if markup.InlineKeyboard[0][0].CallbackData != "callout-respond:my-slug" {
		t.Errorf("unexpected callback data: %+v", markup.InlineKeyboard)
	}
}

func TestService_SendRenderPhoto(t *testing.T) {
	api := newFakeAPI()
	svc := NewServiceWithAPI(api, Opts{})

	render := models.Render{
		Type:    models.RenderTypePhoto,
		Photo:   "https://example.org/img.png",
		Caption: "caption",
	}
	if err := svc.SendRender(context.Background(), 42, render); err != nil {
		t.Fatalf("SendRender failed: %v", err)
	}
	if len(api.sentPhotos) != 1 || api.sentPhotos[0].Photo.URL != "https://example.org/img.png" {
		t.Errorf("unexpected photo params: %+v", api.sentPhotos)
	}
}

func TestService_ValidateAndCanonicalizeChatID(t *testing.T) {
	svc := NewServiceWithAPI(newFakeAPI(), Opts{})

	if id, err := svc.ValidateAndCanonicalizeChatID(" 42 "); err != nil || id != 42 {
		t.Errorf("expected 42, got (%d, %v)", id, err)
	}
	if _, err := svc.ValidateAndCanonicalizeChatID("not-a-number"); err == nil {
		t.Error("expected error for non-numeric recipient")
	}
	if _, err := svc.ValidateAndCanonicalizeChatID(""); err == nil {
		t.Error("expected error for empty recipient")
	}
}
