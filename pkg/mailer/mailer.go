package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

const (
	ProviderSMTP    = "smtp"
	ProviderConsole = "console"

	confirmationSubject = "Appointment Confirmation - Smart Doctor Assistant"
)

type Config struct {
	Host     string `split_words:"true" default:"smtp.gmail.com"`
	Port     int    `split_words:"true" default:"587"`
	Username string `split_words:"true"`
	Password string `split_words:"true"`
	Sender   string `split_words:"true"`
}

// Client sends appointment mail over SMTP. When credentials are absent
// it degrades to logging the mail instead of failing the booking flow.
type Client struct {
	host     string
	port     int
	username string
	password string
	sender   string
	send     sendFunc
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

var _ contractx.Mailer = (*Client)(nil)

func New(cfg Config) *Client {
	sender := strings.TrimSpace(cfg.Sender)
	if sender == "" {
		sender = strings.TrimSpace(cfg.Username)
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	return &Client{
		host:     strings.TrimSpace(cfg.Host),
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		sender:   sender,
		send:     smtp.SendMail,
	}
}

// Configured reports whether SMTP credentials are present.
func (c *Client) Configured() bool {
	return c.host != "" && c.username != "" && c.password != ""
}

func (c *Client) SendAppointmentConfirmation(ctx context.Context, mail contractx.ConfirmationEmail) (string, error) {
	to := strings.TrimSpace(mail.To)
	if to == "" {
		return "", fmt.Errorf("recipient email is required")
	}

	if !c.Configured() {
		log.Info().
			Str("to", to).
			Str("doctor", mail.DoctorName).
			Str("date", mail.Date).
			Str("time", mail.Time).
			Msg("smtp not configured, logging confirmation instead")
		return ProviderConsole, nil
	}

	// net/smtp dials without a context; honor cancellation before the dial.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg := buildMessage(c.sender, to, confirmationSubject, confirmationBody(mail))
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	auth := smtp.PlainAuth("", c.username, c.password, c.host)

	if err := c.send(addr, auth, c.sender, []string{to}, msg); err != nil {
		return "", fmt.Errorf("send confirmation email: %w", err)
	}
	return ProviderSMTP, nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func confirmationBody(mail contractx.ConfirmationEmail) string {
	doctor := mail.DoctorName
	if mail.Specialization != "" {
		doctor = fmt.Sprintf("%s (%s)", mail.DoctorName, mail.Specialization)
	}

	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	b.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">`)
	b.WriteString(`<h2 style="color: #667eea;">&#9989; Appointment Confirmed</h2>`)
	fmt.Fprintf(&b, `<p>Dear %s,</p>`, mail.PatientName)
	b.WriteString(`<p>Your appointment has been successfully booked!</p>`)
	b.WriteString(`<div style="background-color: #f8f9ff; padding: 15px; border-radius: 5px; margin: 20px 0;">`)
	b.WriteString(`<h3 style="margin-top: 0; color: #667eea;">Appointment Details:</h3>`)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Doctor:</strong> %s</p>`, doctor)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Date:</strong> %s</p>`, mail.Date)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Time:</strong> %s</p>`, mail.Time)
	if mail.Location != "" {
		fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Location:</strong> %s</p>`, mail.Location)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<p><strong>Important Reminders:</strong></p>`)
	b.WriteString(`<ul>`)
	b.WriteString(`<li>Please arrive 10 minutes before your appointment</li>`)
	b.WriteString(`<li>Bring your ID and insurance card</li>`)
	b.WriteString(`<li>Bring any previous medical records if applicable</li>`)
	b.WriteString(`</ul>`)
	b.WriteString(`<p>If you need to reschedule or cancel, please contact us at least 24 hours in advance.</p>`)
	b.WriteString(`<hr style="border: 1px solid #eee; margin: 20px 0;">`)
	b.WriteString(`<p style="color: #666; font-size: 12px;">This is an automated message from Smart Doctor Assistant.</p>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}
