package schedule

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// MaxAdvanceDays caps how far ahead an appointment may be booked.
const MaxAdvanceDays = 180

// maxSuggestions caps the alternatives offered on a conflict.
const maxSuggestions = 5

// Holiday is a clinic-wide closure recurring every year.
type Holiday struct {
	Month time.Month
	Day   int
	Name  string
}

// DefaultHolidays returns the built-in closure calendar.
func DefaultHolidays() []Holiday {
	return []Holiday{
		{Month: time.January, Day: 1, Name: "New Year's Day"},
		{Month: time.July, Day: 4, Name: "Independence Day"},
		{Month: time.December, Day: 25, Name: "Christmas Day"},
	}
}

// Slot is one bookable alternative offered after a conflict.
type Slot struct {
	Time     string `json:"time"`
	Time24h  string `json:"time_24h"`
	DateTime string `json:"datetime"`
}

// ValidationResult is the validator's accept/reject decision.
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	Error       string              `json:"error,omitempty"`
	Kind        contractx.ErrorType `json:"error_type,omitempty"`
	Suggestions []Slot              `json:"suggestions,omitempty"`
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

func WithHolidays(holidays []Holiday) ValidatorOption {
	return func(v *Validator) {
		v.holidays = holidays
	}
}

func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator decides whether a candidate appointment may be booked. It is
// pure over its inputs: conflict detection runs against the caller's
// snapshot of existing appointments, typically fetched inside the same
// transaction that will insert the new row.
type Validator struct {
	holidays []Holiday
	now      func() time.Time
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		holidays: DefaultHolidays(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate runs the ordered date, time, and conflict checks and stops at
// the first failure. existing must hold the doctor's non-cancelled
// appointments on the candidate date.
func (v *Validator) Validate(doctor *Doctor, date time.Time, at TimeOfDay, existing []*Appointment) ValidationResult {
	if ok, msg := v.ValidateDate(doctor, date); !ok {
		return ValidationResult{Error: msg, Kind: contractx.ErrorTypeDate}
	}
	if ok, msg := v.ValidateTime(doctor, at); !ok {
		return ValidationResult{Error: msg, Kind: contractx.ErrorTypeTime}
	}
	if msg, suggestions, conflict := v.checkConflicts(doctor, date, at, existing); conflict {
		return ValidationResult{Error: msg, Kind: contractx.ErrorTypeConflict, Suggestions: suggestions}
	}
	return ValidationResult{Valid: true}
}

// ValidateDate checks the calendar: not in the past, within the booking
// horizon, not a clinic holiday, and on one of the doctor's days.
func (v *Validator) ValidateDate(doctor *Doctor, date time.Time) (bool, string) {
	today := DateOnly(v.now())
	date = DateOnly(date)

	if date.Before(today) {
		return false, "Cannot book appointments in the past. Please select a future date."
	}
	if date.After(today.AddDate(0, 0, MaxAdvanceDays)) {
		return false, "Cannot book appointments more than 6 months in advance. Please select an earlier date."
	}
	if name, ok := v.holidayOn(date); ok {
		return false, fmt.Sprintf(
			"The clinic is closed on %s (%s). Please choose another date.",
			name, date.Format("January 02, 2006"))
	}
	if !doctor.AvailableOn(date.Weekday()) {
		days := strings.Join(doctor.AvailableDays, ", ")
		if days == "" {
			days = "none"
		}
		return false, fmt.Sprintf(
			"%s is not available on %ss. Available days: %s. Please select a different date.",
			doctor.Name, date.Weekday(), days)
	}
	return true, ""
}

// ValidateTime checks the clock against the doctor's working window.
func (v *Validator) ValidateTime(doctor *Doctor, at TimeOfDay) (bool, string) {
	if !doctor.HoursConfigured() {
		return false, "Doctor's availability hours are not configured."
	}
	if at < doctor.AvailableStartTime || at >= doctor.AvailableEndTime {
		return false, fmt.Sprintf(
			"The requested time %s is outside %s's working hours (%s - %s). Please select a time within these hours.",
			at.Clock12(), doctor.Name, doctor.AvailableStartTime.Clock12(), doctor.AvailableEndTime.Clock12())
	}
	return true, ""
}

func (v *Validator) checkConflicts(doctor *Doctor, date time.Time, at TimeOfDay, existing []*Appointment) (string, []Slot, bool) {
	duration := doctor.SlotMinutes()

	for _, appt := range existing {
		if !appt.IsActive() || appt.AppointmentTime != at {
			continue
		}
		suggestions := v.AlternativeSlots(doctor, date, existing)
		msg := fmt.Sprintf("This time slot (%s) is already booked. ", at.Clock12())
		if len(suggestions) > 0 {
			msg += fmt.Sprintf("Available slots on %s: %s.",
				date.Format("January 02, 2006"), joinSlotTimes(suggestions, 3))
		} else {
			msg += "No available slots found on this date. Please try another day."
		}
		return msg, suggestions, true
	}

	end := at.AddMinutes(duration)
	for _, appt := range existing {
		if !appt.IsActive() || !appt.Overlaps(at, end) {
			continue
		}
		suggestions := v.AlternativeSlots(doctor, date, existing)
		msg := fmt.Sprintf("This time slot overlaps with another appointment (%s - %s). ",
			appt.AppointmentTime.Clock12(), appt.EndsAt().Clock12())
		if len(suggestions) > 0 {
			msg += fmt.Sprintf("Try these times: %s.", joinSlotTimes(suggestions, 3))
		}
		return msg, suggestions, true
	}

	return "", nil, false
}

// AlternativeSlots scans the doctor's working window in slot-duration
// steps and collects up to 5 free slots, earliest first. A slot counts
// as free when it overlaps no existing appointment and its full
// duration fits before closing time.
func (v *Validator) AlternativeSlots(doctor *Doctor, date time.Time, existing []*Appointment) []Slot {
	duration := doctor.SlotMinutes()
	var slots []Slot

	for cur := doctor.AvailableStartTime; cur < doctor.AvailableEndTime; cur = cur.AddMinutes(duration) {
		slotEnd := cur.AddMinutes(duration)
		if slotEnd > doctor.AvailableEndTime {
			continue
		}
		if overlapsAny(existing, cur, slotEnd) {
			continue
		}
		slots = append(slots, Slot{
			Time:     cur.Clock12(),
			Time24h:  cur.HHMM(),
			DateTime: cur.At(date).Format("2006-01-02T15:04:05"),
		})
		if len(slots) >= maxSuggestions {
			break
		}
	}
	return slots
}

func (v *Validator) holidayOn(date time.Time) (string, bool) {
	for _, h := range v.holidays {
		if date.Month() == h.Month && date.Day() == h.Day {
			return h.Name, true
		}
	}
	return "", false
}

func overlapsAny(existing []*Appointment, start, end TimeOfDay) bool {
	for _, appt := range existing {
		if appt.IsActive() && appt.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func joinSlotTimes(slots []Slot, limit int) string {
	if len(slots) > limit {
		slots = slots[:limit]
	}
	times := make([]string, len(slots))
	for i, s := range slots {
		times[i] = s.Time
	}
	return strings.Join(times, ", ")
}
