package orchestratornode

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

func TestValidateRequestNormalizes(t *testing.T) {
	t.Parallel()

	bangkok := time.FixedZone("ICT", 7*3600)
	nowFn := func() time.Time {
		return time.Date(2025, time.March, 10, 15, 0, 0, 0, bangkok)
	}

	state, err := ValidateRequest(GraphInput{
		SessionID: " s1 ",
		UserEmail: "jane@example.com",
		Text:      "  hello  ",
	}, nowFn)
	if err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if state.Key.SessionID != "s1" || state.Text != "hello" {
		t.Fatalf("expected trimmed fields, got %+v", state)
	}
	if state.MaxIterations != contractx.DefaultMaxIterations {
		t.Fatalf("expected default iteration cap, got %d", state.MaxIterations)
	}
	if !state.Now.Equal(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)) || state.Now.Location() != time.UTC {
		t.Fatalf("expected UTC clock, got %v", state.Now)
	}
}

func TestValidateRequestRequiresUserEmail(t *testing.T) {
	t.Parallel()

	_, err := ValidateRequest(GraphInput{SessionID: "s1", Text: "hello"}, time.Now)
	if !errors.Is(err, statex.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}

func TestValidateRequestRejectsBlankText(t *testing.T) {
	t.Parallel()

	_, err := ValidateRequest(GraphInput{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "   ",
	}, time.Now)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestValidateRequestKeepsExplicitIterationCap(t *testing.T) {
	t.Parallel()

	state, err := ValidateRequest(GraphInput{
		SessionID:     "s1",
		UserEmail:     "jane@example.com",
		Text:          "hello",
		MaxIterations: 2,
	}, time.Now)
	if err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if state.MaxIterations != 2 {
		t.Fatalf("expected explicit cap kept, got %d", state.MaxIterations)
	}
}
