package capability

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
)

func (g *Gateway) doctorAvailability(ctx context.Context, args map[string]any) map[string]any {
	doctorName := argString(args, "doctor_name")

	date, err := schedulex.ParseDate(argString(args, "date"))
	if err != nil {
		return errPayload(err.Error())
	}

	doctor, err := g.store.FindDoctorByName(ctx, doctorName)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return errPayload(fmt.Sprintf("Doctor '%s' not found", doctorName))
		}
		return errPayload(err.Error())
	}

	day := date.Weekday()
	if !doctor.AvailableOn(day) {
		payload := errPayload(fmt.Sprintf("%s is not available on %ss", doctor.Name, day))
		payload["available_days"] = doctor.AvailableDays
		return payload
	}

	existing, err := g.store.ActiveAppointmentsOn(ctx, doctor.ID, date)
	if err != nil {
		return errPayload(err.Error())
	}

	free := schedulex.AvailableSlots(doctor, existing)
	slots := make([]string, len(free))
	for i, at := range free {
		slots[i] = at.HHMM()
	}

	return okPayload(map[string]any{
		"doctor_name":           doctor.Name,
		"date":                  schedulex.DateString(date),
		"day":                   day.String(),
		"available_slots":       slots,
		"slot_duration_minutes": doctor.SlotMinutes(),
	})
}
