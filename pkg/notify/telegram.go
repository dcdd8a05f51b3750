package notify

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// Telegram message prefixes per notification kind.
var telegramEmojis = map[string]string{
	KindInfo:    "ℹ️",
	KindSuccess: "✅",
	KindWarning: "⚠️",
	KindError:   "❌",
	KindReport:  "\U0001F4CA",
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (c *Client) sendTelegram(ctx context.Context, n contractx.Notification) error {
	emoji, ok := telegramEmojis[n.Kind]
	if !ok {
		emoji = telegramEmojis[KindInfo]
	}

	payload := telegramPayload{
		ChatID:    c.telegramChatID,
		Text:      fmt.Sprintf("%s *%s*\n\n%s\n\n_Smart Doctor Assistant • FREE Telegram_", emoji, n.Title, n.Body),
		ParseMode: "Markdown",
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.telegramBaseURL, c.telegramBotToken)
	return c.postJSON(ctx, endpoint, payload)
}
