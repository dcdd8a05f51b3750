package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func testNotification() contractx.Notification {
	return contractx.Notification{
		Recipient: "dr.rao@hospital.com",
		Title:     "Daily Report for Dr. Asha Rao",
		Body:      "12 appointments scheduled today.",
		Kind:      KindReport,
	}
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
}

func TestSendPrefersDiscordWhenConfigured(t *testing.T) {
	t.Parallel()

	var got discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := New(
		Config{
			DiscordWebhookURL: server.URL,
			TelegramBotToken:  "bot-token",
			TelegramChatID:    "chat-1",
		},
		WithHTTPClient(server.Client()),
		WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	provider, err := client.Send(context.Background(), testNotification())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if provider != ProviderDiscord {
		t.Fatalf("expected discord provider, got %q", provider)
	}
	if len(got.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(got.Embeds))
	}
	embed := got.Embeds[0]
	if !strings.HasSuffix(embed.Title, "Daily Report for Dr. Asha Rao") {
		t.Fatalf("unexpected embed title: %q", embed.Title)
	}
	if embed.Color != 9442302 {
		t.Fatalf("expected report color, got %d", embed.Color)
	}
	if embed.Timestamp != "2025-03-11T09:00:00Z" {
		t.Fatalf("unexpected timestamp: %q", embed.Timestamp)
	}
	if embed.Description != "12 appointments scheduled today." {
		t.Fatalf("unexpected description: %q", embed.Description)
	}
}

func TestSendFallsBackToTelegram(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got telegramPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	client, err := New(
		Config{
			TelegramBotToken: "bot-token",
			TelegramChatID:   "chat-1",
		},
		WithHTTPClient(server.Client()),
		WithTelegramBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n := testNotification()
	n.Kind = KindWarning
	provider, err := client.Send(context.Background(), n)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if provider != ProviderTelegram {
		t.Fatalf("expected telegram provider, got %q", provider)
	}
	if gotPath != "/botbot-token/sendMessage" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if got.ChatID != "chat-1" {
		t.Fatalf("unexpected chat id: %q", got.ChatID)
	}
	if got.ParseMode != "Markdown" {
		t.Fatalf("unexpected parse mode: %q", got.ParseMode)
	}
	if !strings.Contains(got.Text, "*Daily Report for Dr. Asha Rao*") {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if !strings.Contains(got.Text, "12 appointments scheduled today.") {
		t.Fatalf("unexpected text: %q", got.Text)
	}
}

func TestSendFallsBackToConsole(t *testing.T) {
	t.Parallel()

	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	provider, err := client.Send(context.Background(), testNotification())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if provider != ProviderConsole {
		t.Fatalf("expected console provider, got %q", provider)
	}
}

func TestSendRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n := testNotification()
	n.Title = "   "
	if _, err := client.Send(context.Background(), n); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestSendSurfacesHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client, err := New(
		Config{DiscordWebhookURL: server.URL},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.Send(context.Background(), testNotification()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestUnknownKindRendersAsInfo(t *testing.T) {
	t.Parallel()

	var got discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := New(
		Config{DiscordWebhookURL: server.URL},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n := testNotification()
	n.Kind = "reminder"
	if _, err := client.Send(context.Background(), n); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Embeds[0].Color != discordColors[KindInfo] {
		t.Fatalf("expected info color for unknown kind, got %d", got.Embeds[0].Color)
	}
}
