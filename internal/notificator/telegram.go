package notificator

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/core-coin/gutta/pkg/logger"
)

// TelegramNotificator mirrors alerts into an operator chat. Send-only;
// the bot never processes inbound updates.
type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID int64
}

func NewTelegramNotificator(logger *logger.Logger, token string, chatID int64) (*TelegramNotificator, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotificator{logger: logger, bot: b, chatID: chatID}, nil
}

func (t *TelegramNotificator) Send(subject, body string) {
	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   subject + "\n\n" + body,
	}
	_, err := t.bot.SendMessage(context.Background(), params)
	if err != nil {
		t.logger.Error("Failed to send telegram alert: ", err)
	}
}
