package capability

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
)

// sendPatientEmail re-sends the confirmation for an existing
// appointment. The mail template is fixed; the model-supplied subject
// and message are accepted but not rendered.
func (g *Gateway) sendPatientEmail(ctx context.Context, args map[string]any) map[string]any {
	patientEmail := argString(args, "patient_email")

	appointmentID, err := argInt(args, "appointment_id")
	if err != nil {
		return typedErrPayload(err.Error(), contractx.ErrorTypeValidation)
	}

	appt, err := g.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return errPayload("Appointment not found")
		}
		return errPayload(err.Error())
	}

	mail := contractx.ConfirmationEmail{
		To:       patientEmail,
		Date:     schedulex.DateString(appt.AppointmentDate),
		Time:     appt.AppointmentTime.HHMM(),
		Location: clinicLocation,
	}
	if appt.Patient != nil {
		mail.PatientName = appt.Patient.Name
	}
	if appt.Doctor != nil {
		mail.DoctorName = appt.Doctor.Name
		mail.Specialization = appt.Doctor.Specialization
	}

	provider, err := g.mailer.SendAppointmentConfirmation(ctx, mail)
	if err != nil {
		return errPayload(err.Error())
	}

	return okPayload(map[string]any{
		"message":  fmt.Sprintf("Email sent successfully to %s", patientEmail),
		"provider": provider,
	})
}
