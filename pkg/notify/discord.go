package notify

import (
	"context"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// Discord embed accent colors per notification kind.
var discordColors = map[string]int{
	KindInfo:    3447003,
	KindSuccess: 3066993,
	KindWarning: 15105570,
	KindError:   15158332,
	KindReport:  9442302,
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (c *Client) sendDiscord(ctx context.Context, n contractx.Notification) error {
	color, ok := discordColors[n.Kind]
	if !ok {
		color = discordColors[KindInfo]
	}

	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       "\U0001F3E5 " + n.Title,
			Description: n.Body,
			Color:       color,
			Timestamp:   c.now().UTC().Format(time.RFC3339),
			Footer: discordFooter{
				Text: "Smart Doctor Assistant • FREE Discord Notifications",
			},
		}},
	}

	return c.postJSON(ctx, c.discordWebhookURL, payload)
}
