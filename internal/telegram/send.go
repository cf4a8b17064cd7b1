package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"

	"github.com/calloutkit/calloutbot/internal/models"
)

// SendRender delivers one rendered payload to a chat. Text renders pick
// their parse mode from the render type; photo renders are sent by URL with
// an optional caption.
func (s *Service) SendRender(ctx context.Context, chatID int64, render models.Render) error {
	if chatID == 0 {
		return fmt.Errorf("%w: zero chat id", models.ErrInvalidChatID)
	}

	markup := replyMarkup(render)

	switch render.Type {
	case models.RenderTypePhoto:
		params := &telego.SendPhotoParams{
			ChatID:      telego.ChatID{ID: chatID},
			Photo:       telego.InputFile{URL: render.Photo},
			Caption:     render.Caption,
			ReplyMarkup: markup,
		}
		if _, err := s.api.SendPhoto(ctx, params); err != nil {
			slog.Error("Telegram.SendRender: failed to send photo", "error", err, "chatID", chatID, "key", render.Key)
			return fmt.Errorf("failed to send photo to chat %d: %w", chatID, err)
		}
	default:
		params := &telego.SendMessageParams{
			ChatID:      telego.ChatID{ID: chatID},
			Text:        render.Text,
			ParseMode:   parseMode(render.Type),
			ReplyMarkup: markup,
		}
		if _, err := s.api.SendMessage(ctx, params); err != nil {
			slog.Error("Telegram.SendRender: failed to send message", "error", err, "chatID", chatID, "key", render.Key)
			return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
		}
	}

	slog.Debug("Telegram.SendRender: sent", "chatID", chatID, "key", render.Key, "type", render.Type)
	return nil
}

func parseMode(t models.RenderType) string {
	switch t {
	case models.RenderTypeMarkdown:
		return telego.ModeMarkdownV2
	case models.RenderTypeHTML:
		return telego.ModeHTML
	default:
		return ""
	}
}

func replyMarkup(render models.Render) telego.ReplyMarkup {
	switch {
	case render.Keyboard != nil && len(render.Keyboard.Rows) > 0:
		rows := make([][]telego.InlineKeyboardButton, 0, len(render.Keyboard.Rows))
		for _, row := range render.Keyboard.Rows {
			buttons := make([]telego.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, telego.InlineKeyboardButton{
					Text:         b.Text,
					CallbackData: b.Data,
				})
			}
			rows = append(rows, buttons)
		}
		return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
	case render.RemoveKeyboard:
		return &telego.ReplyKeyboardRemove{RemoveKeyboard: true}
	default:
		return nil
	}
}
