package realtime

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/logger"

	"kalyana/internal/models"
)

// MessageSender is the part of *tgbotapi.BotAPI the relay needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramRelay posts every platform update to one Telegram chat.
type TelegramRelay struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramRelay(bot MessageSender, chatID int64) *TelegramRelay {
	return &TelegramRelay{bot: bot, chatID: chatID}
}

// NewTelegramRelayFromToken logs the bot in. It returns nil, nil when the relay is not configured.
func NewTelegramRelayFromToken(token string, chatID int64) (*TelegramRelay, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	logger.Infof("[telegram] authorized as @%s chat_id=%d", bot.Self.UserName, chatID)
	return NewTelegramRelay(bot, chatID), nil
}

// Run forwards updates from the hub until ctx is done.
func (r *TelegramRelay) Run(ctx context.Context, hub *Hub) {
	sub := hub.Subscribe(64)
	defer hub.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			r.Deliver(u)
		}
	}
}

func (r *TelegramRelay) Deliver(u models.PlatformUpdate) {
	msg := tgbotapi.NewMessage(r.chatID, FormatUpdate(u))
	if _, err := r.bot.Send(msg); err != nil {
		logger.Warningf("[telegram][send] chat_id=%d %s/%s: %v", r.chatID, u.Scope, u.Action, err)
	}
}

// FormatUpdate renders an update as one line, e.g. "[14:05 UTC] allocation requested by ngo".
func FormatUpdate(u models.PlatformUpdate) string {
	return fmt.Sprintf("[%s UTC] %s %s by %s", u.Timestamp.UTC().Format("15:04"), u.Scope, u.Action, u.ActorRole)
}
