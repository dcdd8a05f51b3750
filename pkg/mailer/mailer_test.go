package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func testEmail() contractx.ConfirmationEmail {
	return contractx.ConfirmationEmail{
		To:             "jane@example.com",
		PatientName:    "Jane Doe",
		DoctorName:     "Dr. Asha Rao",
		Specialization: "Cardiology",
		Date:           "2025-03-11",
		Time:           "10:00 AM",
		Location:       "Main Clinic",
	}
}

func TestUnconfiguredClientFallsBackToConsole(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	provider, err := c.SendAppointmentConfirmation(context.Background(), testEmail())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != ProviderConsole {
		t.Fatalf("expected console provider, got %q", provider)
	}
}

func TestSendBuildsHTMLConfirmation(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	c := New(Config{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "clinic@example.com",
		Password: "secret",
	})
	c.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	provider, err := c.SendAppointmentConfirmation(context.Background(), testEmail())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != ProviderSMTP {
		t.Fatalf("expected smtp provider, got %q", provider)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Fatalf("unexpected addr: %s", gotAddr)
	}
	if gotFrom != "clinic@example.com" {
		t.Fatalf("expected sender to default to username, got %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "jane@example.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}

	body := string(gotMsg)
	for _, want := range []string{
		"Subject: Appointment Confirmation - Smart Doctor Assistant",
		"Content-Type: text/html",
		"Dear Jane Doe,",
		"Dr. Asha Rao (Cardiology)",
		"2025-03-11",
		"10:00 AM",
		"Main Clinic",
		"arrive 10 minutes before",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("message missing %q", want)
		}
	}
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	mail := testEmail()
	mail.To = "  "
	if _, err := c.SendAppointmentConfirmation(context.Background(), mail); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	c := New(Config{Host: "smtp.example.com", Username: "u", Password: "p"})
	c.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not run after cancellation")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.SendAppointmentConfirmation(ctx, testEmail()); err == nil {
		t.Fatal("expected context error")
	}
}
