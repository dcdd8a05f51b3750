package schedule

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Appointment statuses. Cancelled appointments free their slot.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DefaultSlotMinutes applies when a doctor row predates the slot column.
const DefaultSlotMinutes = 30

// TimeOfDay is a clock time without a date, counted in minutes from
// midnight. It maps onto a Postgres time column.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts HH:MM and HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		parsed, err = time.Parse("15:04:05", s)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return NewTimeOfDay(parsed.Hour(), parsed.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	return t + TimeOfDay(m)
}

// String renders the column form HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// HHMM renders the wire form used in capability payloads.
func (t TimeOfDay) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Clock12 renders the user-facing form, e.g. "09:30 AM".
func (t TimeOfDay) Clock12() string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute(), meridiem)
}

// At pins the clock time onto a calendar date.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("unsupported time column type %T", src)
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateString formats a calendar date as YYYY-MM-DD.
func DateString(d time.Time) string {
	return d.Format("2006-01-02")
}

// DateOnly truncates a timestamp to its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Doctor struct {
	bun.BaseModel `bun:"table:doctors,alias:d"`

	ID                  int64     `bun:"id,pk,autoincrement" json:"id"`
	Name                string    `bun:"name,notnull" json:"name"`
	Specialization      string    `bun:"specialization,notnull" json:"specialization"`
	Email               string    `bun:"email,notnull,unique" json:"email"`
	Phone               string    `bun:"phone" json:"phone"`
	AvailableDays       []string  `bun:"available_days,array" json:"available_days"`
	AvailableStartTime  TimeOfDay `bun:"available_start_time,type:time" json:"available_start_time"`
	AvailableEndTime    TimeOfDay `bun:"available_end_time,type:time" json:"available_end_time"`
	SlotDurationMinutes int       `bun:"slot_duration_minutes,notnull,default:30" json:"slot_duration_minutes"`
	CreatedAt           time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt           time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// AvailableOn reports whether the doctor works on the given weekday.
func (d *Doctor) AvailableOn(day time.Weekday) bool {
	name := day.String()
	for _, avail := range d.AvailableDays {
		if avail == name {
			return true
		}
	}
	return false
}

// HoursConfigured reports whether the working window is usable.
func (d *Doctor) HoursConfigured() bool {
	return d.AvailableEndTime > d.AvailableStartTime
}

func (d *Doctor) SlotMinutes() int {
	if d.SlotDurationMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return d.SlotDurationMinutes
}

// AsMap renders the wire form used in capability payloads.
func (d *Doctor) AsMap() map[string]any {
	return map[string]any{
		"id":                    d.ID,
		"name":                  d.Name,
		"specialization":        d.Specialization,
		"email":                 d.Email,
		"phone":                 d.Phone,
		"available_days":        d.AvailableDays,
		"available_start_time":  d.AvailableStartTime.String(),
		"available_end_time":    d.AvailableEndTime.String(),
		"slot_duration_minutes": d.SlotMinutes(),
	}
}

type Patient struct {
	bun.BaseModel `bun:"table:patients,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Phone     string    `bun:"phone" json:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID                    int64     `bun:"id,pk,autoincrement" json:"id"`
	PatientID             int64     `bun:"patient_id,notnull" json:"patient_id"`
	DoctorID              int64     `bun:"doctor_id,notnull" json:"doctor_id"`
	AppointmentDate       time.Time `bun:"appointment_date,type:date,notnull" json:"appointment_date"`
	AppointmentTime       TimeOfDay `bun:"appointment_time,type:time,notnull" json:"appointment_time"`
	DurationMinutes       int       `bun:"duration_minutes,notnull,default:30" json:"duration_minutes"`
	Status                string    `bun:"status,notnull,default:'scheduled'" json:"status"`
	Symptoms              string    `bun:"symptoms" json:"symptoms,omitempty"`
	Diagnosis             string    `bun:"diagnosis" json:"diagnosis,omitempty"`
	Notes                 string    `bun:"notes" json:"notes,omitempty"`
	GoogleCalendarEventID string    `bun:"google_calendar_event_id" json:"google_calendar_event_id,omitempty"`
	CreatedAt             time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt             time.Time `bun:"updated_at,notnull" json:"updated_at"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id" json:"patient,omitempty"`
	Doctor  *Doctor  `bun:"rel:belongs-to,join:doctor_id=id" json:"doctor,omitempty"`
}

func (a *Appointment) Duration() int {
	if a.DurationMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return a.DurationMinutes
}

func (a *Appointment) EndsAt() TimeOfDay {
	return a.AppointmentTime.AddMinutes(a.Duration())
}

// Overlaps reports whether [start, end) intersects this appointment.
func (a *Appointment) Overlaps(start, end TimeOfDay) bool {
	return start < a.EndsAt() && end > a.AppointmentTime
}

func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// AsMap renders the wire form used in capability payloads.
func (a *Appointment) AsMap() map[string]any {
	m := map[string]any{
		"id":               a.ID,
		"patient_id":       a.PatientID,
		"doctor_id":        a.DoctorID,
		"appointment_date": DateString(a.AppointmentDate),
		"appointment_time": a.AppointmentTime.String(),
		"duration_minutes": a.Duration(),
		"status":           a.Status,
		"symptoms":         a.Symptoms,
		"diagnosis":        a.Diagnosis,
		"notes":            a.Notes,
	}
	if a.GoogleCalendarEventID != "" {
		m["google_calendar_event_id"] = a.GoogleCalendarEventID
	}
	if a.Patient != nil {
		m["patient_name"] = a.Patient.Name
	}
	if a.Doctor != nil {
		m["doctor_name"] = a.Doctor.Name
	}
	return m
}
