package notify

import (
	"context"
	"errors"
	"html"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// maxMessageLength stays under Telegram's 4096 character limit.
const maxMessageLength = 4000

// Telegram posts alerts to one chat through the Bot API.
type Telegram struct {
	bot    *tgbot.Bot
	chatID int64
}

// NewTelegram returns nil, nil when token or chat are not configured.
func NewTelegram(token string, chatID int64, opts ...tgbot.Option) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	b, err := tgbot.New(token, append([]tgbot.Option{tgbot.WithSkipGetMe()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(ctx context.Context, title, text string) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram disabled")
	}
	msg := "<b>" + html.EscapeString(title) + "</b>\n" + html.EscapeString(text)
	if r := []rune(msg); len(r) > maxMessageLength {
		msg = string(r[:maxMessageLength])
	}
	_, err := t.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      msg,
		ParseMode: models.ParseModeHTML,
	})
	return err
}
