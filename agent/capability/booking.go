package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

const clinicLocation = "Main Clinic"

// errRolledBack aborts the booking transaction after the failure
// envelope has already been captured.
var errRolledBack = errors.New("booking rolled back")

func (g *Gateway) bookAppointment(ctx context.Context, call contractx.CapabilityCall) map[string]any {
	args := call.Args
	patientName := argString(args, "patient_name")
	patientEmail := argString(args, "patient_email")
	doctorName := argString(args, "doctor_name")
	dateStr := argString(args, "appointment_date")
	timeStr := argString(args, "appointment_time")
	symptoms := argString(args, "symptoms")

	date, dateErr := schedulex.ParseDate(dateStr)
	at, timeErr := schedulex.ParseTimeOfDay(timeStr)
	if dateErr != nil || timeErr != nil {
		return errPayload("Invalid date or time format. Please use YYYY-MM-DD for date and HH:MM for time.")
	}

	var (
		patient   *schedulex.Patient
		doctor    *schedulex.Doctor
		appt      *schedulex.Appointment
		failure   map[string]any
		rejection *schedulex.ValidationResult
	)

	// Conflict detection and the insert share one transaction; the
	// partial unique index on active slots backstops concurrent writers.
	txErr := g.inTx(ctx, func(store Store) error {
		var err error
		patient, err = store.FindOrCreatePatient(ctx, patientName, patientEmail)
		if err != nil {
			return err
		}

		doctor, err = store.FindDoctorByName(ctx, doctorName)
		if err != nil {
			if errors.Is(err, contractx.ErrNotFound) {
				failure = errPayload(fmt.Sprintf(
					"Doctor '%s' not found in our system. Please check the name and try again.", doctorName))
				return errRolledBack
			}
			return err
		}

		existing, err := store.ActiveAppointmentsOn(ctx, doctor.ID, date)
		if err != nil {
			return err
		}

		if res := g.validator.Validate(doctor, date, at, existing); !res.Valid {
			rejection = &res
			failure = rejectionPayload(res, doctor, dateStr)
			return errRolledBack
		}

		appt = &schedulex.Appointment{
			PatientID:       patient.ID,
			DoctorID:        doctor.ID,
			AppointmentDate: schedulex.DateOnly(date),
			AppointmentTime: at,
			DurationMinutes: doctor.SlotMinutes(),
			Symptoms:        symptoms,
			Status:          schedulex.StatusScheduled,
		}
		if err := store.CreateAppointment(ctx, appt); err != nil {
			return err
		}

		appt.GoogleCalendarEventID = fmt.Sprintf("gcal_%d_%d", appt.ID, g.now().Unix())
		return store.SetCalendarEventID(ctx, appt.ID, appt.GoogleCalendarEventID)
	})

	switch {
	case txErr == nil:
		// fall through to the success path below
	case errors.Is(txErr, errRolledBack):
		if rejection != nil {
			g.recordRejection(ctx, call.Scope, doctor, dateStr, rejection.Error)
		}
		return failure
	case errors.Is(txErr, contractx.ErrConflict):
		msg := "This time slot was just booked by another patient. Please choose a different time."
		g.recordRejection(ctx, call.Scope, doctor, dateStr, msg)
		return typedErrPayload(msg, contractx.ErrorTypeConflict)
	default:
		return errPayload(txErr.Error())
	}

	dateFormatted := date.Format("Monday, January 02, 2006")
	timeFormatted := at.Clock12()
	end := at.AddMinutes(appt.Duration())

	if _, err := g.mailer.SendAppointmentConfirmation(ctx, contractx.ConfirmationEmail{
		To:             patientEmail,
		PatientName:    patient.Name,
		DoctorName:     doctor.Name,
		Specialization: doctor.Specialization,
		Date:           dateStr,
		Time:           timeStr,
		Location:       clinicLocation,
	}); err != nil {
		// the appointment stands even when the email does not go out
		log.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("confirmation email failed")
	}

	if call.Scope != nil {
		if err := g.memory.SaveSuccessfulBooking(ctx, *call.Scope, memoryx.BookingRecord{
			AppointmentID: appt.ID,
			DoctorName:    doctor.Name,
			Date:          dateStr,
			Time:          timeStr,
			BookedAt:      g.now().UTC(),
		}); err != nil {
			log.Warn().Err(err).Msg("record successful booking")
		}
	}

	confirmation := fmt.Sprintf(
		"✅ Appointment Confirmed!\n\n"+
			"Patient: %s\n"+
			"Doctor: %s (%s)\n"+
			"Date: %s\n"+
			"Time: %s - %s (%d minutes)\n"+
			"Location: %s\n\n"+
			"Confirmation email has been sent to %s.\n"+
			"Appointment ID: #%d",
		patient.Name, doctor.Name, doctor.Specialization, dateFormatted,
		timeFormatted, end.Clock12(), appt.Duration(), clinicLocation,
		patientEmail, appt.ID)

	return okPayload(map[string]any{
		"appointment_id":             appt.ID,
		"patient_name":               patient.Name,
		"patient_email":              patientEmail,
		"doctor_name":                doctor.Name,
		"doctor_specialization":      doctor.Specialization,
		"appointment_date":           dateStr,
		"appointment_date_formatted": dateFormatted,
		"appointment_time":           timeStr,
		"appointment_time_formatted": timeFormatted,
		"end_time":                   end.HHMM(),
		"duration_minutes":           appt.Duration(),
		"google_calendar_event_id":   appt.GoogleCalendarEventID,
		"location":                   clinicLocation,
		"message":                    confirmation,
	})
}

func rejectionPayload(res schedulex.ValidationResult, doctor *schedulex.Doctor, dateStr string) map[string]any {
	payload := typedErrPayload(res.Error, res.Kind)
	if len(res.Suggestions) > 0 {
		payload["suggested_slots"] = res.Suggestions
		payload["doctor_name"] = doctor.Name
		payload["requested_date"] = dateStr
	}
	return payload
}

// recordRejection stores the failed attempt in conversation memory so
// follow-up turns can reference the doctor and date.
func (g *Gateway) recordRejection(ctx context.Context, scope *statex.SessionKey, doctor *schedulex.Doctor, dateStr, reason string) {
	if scope == nil || doctor == nil {
		return
	}
	if err := g.memory.SaveDoctorSelection(ctx, *scope, memoryx.DoctorSelection{
		ID:             doctor.ID,
		Name:           doctor.Name,
		Specialization: doctor.Specialization,
		SelectedAt:     g.now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Msg("record doctor selection")
	}
	if err := g.memory.SaveAttemptedDate(ctx, *scope, dateStr, reason); err != nil {
		log.Warn().Err(err).Msg("record attempted date")
	}
}
