package memory

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MemoryContext is the durable cross-turn knowledge about one
// (session, user) conversation. The JSON field names are a wire contract
// shared with the prompt layer and the stored jsonb column.
type MemoryContext struct {
	SelectedDoctor        *DoctorSelection `json:"selected_doctor,omitempty"`
	AttemptedDates        []string         `json:"attempted_dates,omitempty"`
	LastRejectionReason   string           `json:"last_rejection_reason,omitempty"`
	RejectionHistory      []RejectionEntry `json:"rejection_history,omitempty"`
	LastSuccessfulBooking *BookingRecord   `json:"last_successful_booking,omitempty"`
	ConversationSummary   string           `json:"conversation_summary,omitempty"`
}

// DoctorSelection records which doctor the user last showed interest in.
type DoctorSelection struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	SelectedAt     time.Time `json:"selected_at"`
}

// RejectionEntry is one failed booking attempt.
type RejectionEntry struct {
	Date      string    `json:"date"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingRecord points at the user's last confirmed appointment.
type BookingRecord struct {
	AppointmentID int64     `json:"appointment_id"`
	DoctorName    string    `json:"doctor_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	BookedAt      time.Time `json:"booked_at"`
}

// Merge folds a patch into the context field by field: set scalars
// overwrite, attempted dates append with dedup, rejection history
// appends. Zero-valued patch fields leave the existing value alone.
func (c *MemoryContext) Merge(patch MemoryContext) {
	if patch.SelectedDoctor != nil {
		c.SelectedDoctor = patch.SelectedDoctor
	}
	for _, date := range patch.AttemptedDates {
		c.addAttemptedDate(date)
	}
	if patch.LastRejectionReason != "" {
		c.LastRejectionReason = patch.LastRejectionReason
	}
	c.RejectionHistory = append(c.RejectionHistory, patch.RejectionHistory...)
	if patch.LastSuccessfulBooking != nil {
		c.LastSuccessfulBooking = patch.LastSuccessfulBooking
	}
	if patch.ConversationSummary != "" {
		c.ConversationSummary = patch.ConversationSummary
	}
}

// RecordRejection notes a failed booking attempt on date with the
// validator's reason.
func (c *MemoryContext) RecordRejection(date, reason string, at time.Time) {
	c.addAttemptedDate(date)
	c.LastRejectionReason = reason
	c.RejectionHistory = append(c.RejectionHistory, RejectionEntry{
		Date:      date,
		Reason:    reason,
		Timestamp: at,
	})
}

func (c *MemoryContext) addAttemptedDate(date string) {
	if date == "" {
		return
	}
	for _, existing := range c.AttemptedDates {
		if existing == date {
			return
		}
	}
	c.AttemptedDates = append(c.AttemptedDates, date)
}

// IsEmpty reports whether nothing is known yet.
func (c *MemoryContext) IsEmpty() bool {
	return c.SelectedDoctor == nil &&
		len(c.AttemptedDates) == 0 &&
		c.LastRejectionReason == "" &&
		len(c.RejectionHistory) == 0 &&
		c.LastSuccessfulBooking == nil &&
		c.ConversationSummary == ""
}

// PromptFacts renders the context as natural-language facts for the
// system prompt, most useful first.
func (c *MemoryContext) PromptFacts() []string {
	var facts []string
	if sel := c.SelectedDoctor; sel != nil {
		facts = append(facts, fmt.Sprintf(
			"The user has previously shown interest in %s (%s).", sel.Name, sel.Specialization))
	}
	if len(c.AttemptedDates) > 0 {
		facts = append(facts, fmt.Sprintf(
			"The user has attempted to book on: %s.", strings.Join(c.AttemptedDates, ", ")))
	}
	if c.LastRejectionReason != "" {
		facts = append(facts, "Last booking attempt failed because: "+c.LastRejectionReason)
	}
	if b := c.LastSuccessfulBooking; b != nil {
		facts = append(facts, fmt.Sprintf(
			"User successfully booked an appointment (ID: %d) with %s on %s at %s.",
			b.AppointmentID, b.DoctorName, b.Date, b.Time))
	}
	if c.ConversationSummary != "" {
		facts = append(facts, "Summary: "+c.ConversationSummary)
	}
	return facts
}

// RenderPrompt returns the context block injected into the system
// prompt, or "" when nothing is known.
func (c *MemoryContext) RenderPrompt() string {
	facts := c.PromptFacts()
	if len(facts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("**Conversation Context:**")
	for _, fact := range facts {
		b.WriteString("\n- ")
		b.WriteString(fact)
	}
	return b.String()
}

/* ---- jsonb column support ---- */

func (c MemoryContext) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *MemoryContext) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = MemoryContext{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported context column type %T", src)
	}
}
