package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
)

func (g *Gateway) doctorStats(ctx context.Context, args map[string]any) map[string]any {
	doctorName := argString(args, "doctor_name")

	start, err := schedulex.ParseDate(argString(args, "start_date"))
	if err != nil {
		return errPayload(err.Error())
	}
	end, err := schedulex.ParseDate(argString(args, "end_date"))
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

	appointments, err := g.store.AppointmentsBetween(ctx, doctor.ID, start, end)
	if err != nil {
		return errPayload(err.Error())
	}

	statusCounts := map[string]int{}
	symptomCounts := map[string]int{}
	dailyCounts := map[string]int{}
	list := make([]map[string]any, 0, len(appointments))

	for _, appt := range appointments {
		statusCounts[appt.Status]++
		for _, symptom := range strings.Split(appt.Symptoms, ",") {
			symptom = strings.ToLower(strings.TrimSpace(symptom))
			if symptom != "" {
				symptomCounts[symptom]++
			}
		}
		dailyCounts[schedulex.DateString(appt.AppointmentDate)]++
		list = append(list, appt.AsMap())
	}

	return okPayload(map[string]any{
		"doctor_name": doctor.Name,
		"date_range": map[string]any{
			"start": schedulex.DateString(start),
			"end":   schedulex.DateString(end),
		},
		"total_appointments":  len(appointments),
		"status_distribution": statusCounts,
		"symptom_analysis":    symptomCounts,
		"daily_distribution":  dailyCounts,
		"appointments":        list,
	})
}
