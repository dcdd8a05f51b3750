package state

import (
	"errors"
	"testing"
	"time"
)

func TestNewSessionKeyValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSessionKey("s-1", ""); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if _, err := NewSessionKey("", "alice@example.com"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := NewSessionKey("   ", "alice@example.com"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for blank session id, got %v", err)
	}

	key, err := NewSessionKey("  s-1  ", "  alice@example.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.SessionID != "s-1" || key.UserEmail != "alice@example.com" {
		t.Fatalf("expected trimmed key parts, got %+v", key)
	}
}

func TestIsDoctorSession(t *testing.T) {
	t.Parallel()

	doctor, _ := NewSessionKey("doctor_3_1735689600", "dr.patel@hospital.com")
	if !doctor.IsDoctorSession() {
		t.Fatalf("expected doctor session for %q", doctor.SessionID)
	}

	patient, _ := NewSessionKey("s-42", "alice@example.com")
	if patient.IsDoctorSession() {
		t.Fatalf("expected patient session for %q", patient.SessionID)
	}
}

func TestWindowReplaysOnlyUserAndAssistant(t *testing.T) {
	t.Parallel()

	key, _ := NewSessionKey("s-1", "alice@example.com")
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	sess, err := NewSession(key, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess.AppendUser("hello", now)
	sess.AppendAssistant("hi, how can I help?", now)
	sess.AppendToolResult("call_1", "list_doctors", `{"success":true}`, now)
	sess.AppendUser("show cardiologists", now)

	window := sess.Window(DefaultWindowSize)
	if len(window) != 3 {
		t.Fatalf("expected 3 replayable messages, got %d", len(window))
	}
	for _, m := range window {
		if m.Role == RoleTool {
			t.Fatalf("tool message leaked into window: %+v", m)
		}
	}
}

func TestWindowBoundsHistory(t *testing.T) {
	t.Parallel()

	key, _ := NewSessionKey("s-1", "alice@example.com")
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	sess, _ := NewSession(key, now)

	for i := 0; i < 30; i++ {
		sess.AppendUser("msg", now.Add(time.Duration(i)*time.Second))
	}

	if got := len(sess.Window(10)); got != 10 {
		t.Fatalf("expected window of 10, got %d", got)
	}
	if got := len(sess.Messages); got != 30 {
		t.Fatalf("expected full transcript retained, got %d", got)
	}
}

func TestAppendAdvancesUpdatedAt(t *testing.T) {
	t.Parallel()

	key, _ := NewSessionKey("s-1", "alice@example.com")
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	sess, _ := NewSession(key, start)

	later := start.Add(5 * time.Minute)
	sess.AppendUser("hello", later)

	if !sess.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt %v, got %v", later, sess.UpdatedAt)
	}
}
