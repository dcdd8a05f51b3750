package memory

import (
	"strings"
	"testing"
	"time"
)

func TestMergeOverwritesScalarsAndAppendsLists(t *testing.T) {
	t.Parallel()

	base := MemoryContext{
		AttemptedDates:      []string{"2025-12-20"},
		LastRejectionReason: "old reason",
	}

	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	base.Merge(MemoryContext{
		SelectedDoctor:      &DoctorSelection{ID: 1, Name: "Dr. Rajesh Ahuja", Specialization: "Cardiology", SelectedAt: at},
		AttemptedDates:      []string{"2025-12-20", "2025-12-21"},
		LastRejectionReason: "new reason",
	})

	if base.SelectedDoctor == nil || base.SelectedDoctor.Name != "Dr. Rajesh Ahuja" {
		t.Fatalf("expected selected doctor merged, got %+v", base.SelectedDoctor)
	}
	if len(base.AttemptedDates) != 2 {
		t.Fatalf("expected deduplicated attempted dates, got %v", base.AttemptedDates)
	}
	if base.LastRejectionReason != "new reason" {
		t.Fatalf("expected overwritten rejection reason, got %q", base.LastRejectionReason)
	}

	// A zero patch must leave everything alone.
	before := len(base.AttemptedDates)
	base.Merge(MemoryContext{})
	if base.SelectedDoctor == nil || len(base.AttemptedDates) != before || base.LastRejectionReason != "new reason" {
		t.Fatalf("zero patch modified context: %+v", base)
	}
}

func TestRecordRejection(t *testing.T) {
	t.Parallel()

	var c MemoryContext
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	c.RecordRejection("2025-12-25", "clinic closed", at)
	c.RecordRejection("2025-12-25", "still closed", at.Add(time.Minute))

	if len(c.AttemptedDates) != 1 {
		t.Fatalf("expected attempted date recorded once, got %v", c.AttemptedDates)
	}
	if c.LastRejectionReason != "still closed" {
		t.Fatalf("expected latest reason kept, got %q", c.LastRejectionReason)
	}
	if len(c.RejectionHistory) != 2 {
		t.Fatalf("expected full rejection history, got %d entries", len(c.RejectionHistory))
	}
}

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	var empty MemoryContext
	if got := empty.RenderPrompt(); got != "" {
		t.Fatalf("expected empty prompt for empty context, got %q", got)
	}

	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	c := MemoryContext{
		SelectedDoctor: &DoctorSelection{ID: 1, Name: "Dr. Rajesh Ahuja", Specialization: "Cardiology", SelectedAt: at},
		AttemptedDates: []string{"2025-12-20", "2025-12-21"},
		LastSuccessfulBooking: &BookingRecord{
			AppointmentID: 7,
			DoctorName:    "Dr. Rajesh Ahuja",
			Date:          "2025-12-22",
			Time:          "10:00",
			BookedAt:      at,
		},
	}
	c.LastRejectionReason = "This time slot (10:00 AM) is already booked. No available slots found on this date. Please try another day."

	prompt := c.RenderPrompt()
	wantLines := []string{
		"**Conversation Context:**",
		"- The user has previously shown interest in Dr. Rajesh Ahuja (Cardiology).",
		"- The user has attempted to book on: 2025-12-20, 2025-12-21.",
		"- Last booking attempt failed because: " + c.LastRejectionReason,
		"- User successfully booked an appointment (ID: 7) with Dr. Rajesh Ahuja on 2025-12-22 at 10:00.",
	}
	if got := strings.Split(prompt, "\n"); len(got) != len(wantLines) {
		t.Fatalf("expected %d prompt lines, got %d: %q", len(wantLines), len(got), prompt)
	}
	for i, want := range wantLines {
		if got := strings.Split(prompt, "\n")[i]; got != want {
			t.Fatalf("prompt line %d = %q, want %q", i, got, want)
		}
	}
}
