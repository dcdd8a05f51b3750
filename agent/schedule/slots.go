package schedule

// AvailableSlots lists bookable start times for a working day, earliest
// first. Times already taken by an active appointment are skipped, and a
// slot is only offered when its full duration fits before closing time:
// a free window of W minutes at duration d yields exactly W/d slots,
// rounded down.
func AvailableSlots(doctor *Doctor, existing []*Appointment) []TimeOfDay {
	duration := doctor.SlotMinutes()
	var out []TimeOfDay

	for cur := doctor.AvailableStartTime; cur.AddMinutes(duration) <= doctor.AvailableEndTime; cur = cur.AddMinutes(duration) {
		if bookedAt(existing, cur) {
			continue
		}
		out = append(out, cur)
	}
	return out
}

func bookedAt(existing []*Appointment, at TimeOfDay) bool {
	for _, appt := range existing {
		if appt.IsActive() && appt.AppointmentTime == at {
			return true
		}
	}
	return false
}
