package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// Notification kinds. Unknown kinds render as info.
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindWarning = "warning"
	KindError   = "error"
	KindReport  = "report"
)

const (
	ProviderDiscord  = "discord"
	ProviderTelegram = "telegram"
	ProviderConsole  = "console"

	defaultTelegramBaseURL = "https://api.telegram.org"
	maxResponseSizeBytes   = 2 << 20
)

type Config struct {
	DiscordWebhookURL string        `split_words:"true"`
	TelegramBotToken  string        `split_words:"true"`
	TelegramChatID    string        `envconfig:"TELEGRAM_CHAT_ID" split_words:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTelegramBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.telegramBaseURL = trimmed
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client delivers notifications over the first configured channel:
// Discord webhook, then Telegram bot, then the process log.
type Client struct {
	discordWebhookURL string
	telegramBotToken  string
	telegramChatID    string
	telegramBaseURL   string
	httpClient        *http.Client
	now               func() time.Time
}

var _ contractx.Notifier = (*Client)(nil)

func New(cfg Config, opts ...Option) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.DiscordWebhookURL)
	if webhookURL != "" {
		if _, err := url.ParseRequestURI(webhookURL); err != nil {
			return nil, fmt.Errorf("invalid discord webhook url: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		discordWebhookURL: webhookURL,
		telegramBotToken:  strings.TrimSpace(cfg.TelegramBotToken),
		telegramChatID:    strings.TrimSpace(cfg.TelegramChatID),
		telegramBaseURL:   defaultTelegramBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// Send delivers the notification and reports which provider carried it.
func (c *Client) Send(ctx context.Context, n contractx.Notification) (string, error) {
	if strings.TrimSpace(n.Title) == "" {
		return "", errors.New("notification title is required")
	}

	switch {
	case c.discordWebhookURL != "":
		if err := c.sendDiscord(ctx, n); err != nil {
			return "", err
		}
		return ProviderDiscord, nil
	case c.telegramBotToken != "" && c.telegramChatID != "":
		if err := c.sendTelegram(ctx, n); err != nil {
			return "", err
		}
		return ProviderTelegram, nil
	default:
		c.sendConsole(n)
		return ProviderConsole, nil
	}
}

func (c *Client) sendConsole(n contractx.Notification) {
	log.Info().
		Str("kind", n.Kind).
		Str("title", n.Title).
		Str("recipient", n.Recipient).
		Msg(n.Body)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute notification request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read notification response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
