package orchestratornode

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// synthesizeReply renders accumulated capability results into a
// deterministic reply, used when the model stops producing prose.
func synthesizeReply(results []contractx.CapabilityResult) string {
	var b strings.Builder

	for _, result := range results {
		payload := result.Payload
		switch result.Name {
		case "get_doctor_availability":
			if !result.Succeeded() {
				break
			}
			slots := stringSlice(payload["available_slots"])
			fmt.Fprintf(&b, "%s has %d available slots on %s.\n",
				stringOf(payload["doctor_name"]), len(slots), stringOf(payload["date"]))
			if len(slots) > 0 {
				fmt.Fprintf(&b, "Available times: %s\n", strings.Join(head(slots, 5), ", "))
			}

		case "book_appointment":
			if !result.Succeeded() {
				fmt.Fprintf(&b, "BOOKING FAILED: %s\n", stringOf(payload["error"]))
				break
			}
			b.WriteString("SUCCESS: Appointment booked!\n")
			fmt.Fprintf(&b, "Doctor: %s\n", stringOf(payload["doctor_name"]))
			fmt.Fprintf(&b, "Date: %s at %s\n",
				stringOf(payload["appointment_date"]), stringOf(payload["appointment_time"]))
			email := stringOf(payload["patient_email"])
			if email == "" {
				email = "your email"
			}
			fmt.Fprintf(&b, "A confirmation email has been sent to %s.\n", email)

		case "get_doctor_stats":
			if !result.Succeeded() {
				break
			}
			fmt.Fprintf(&b, "Statistics for %s:\n", stringOf(payload["doctor_name"]))
			fmt.Fprintf(&b, "Total appointments: %v\n", payload["total_appointments"])
			statuses, _ := json.Marshal(payload["status_distribution"])
			fmt.Fprintf(&b, "Status breakdown: %s\n", statuses)
			if symptoms := topSymptoms(payload["symptom_analysis"]); len(symptoms) > 0 {
				fmt.Fprintf(&b, "Common symptoms: %s\n", strings.Join(head(symptoms, 3), ", "))
			}

		case "list_doctors":
			if !result.Succeeded() {
				break
			}
			doctors := docMaps(payload["doctors"])
			word := "doctors"
			if len(doctors) == 1 {
				word = "doctor"
			}
			fmt.Fprintf(&b, "We have %d %s available:\n\n", len(doctors), word)
			for _, doc := range doctors {
				fmt.Fprintf(&b, "• %s - %s\n", stringOf(doc["name"]), stringOf(doc["specialization"]))
				if days := stringSlice(doc["available_days"]); len(days) > 0 {
					fmt.Fprintf(&b, "  Available: %s\n", strings.Join(head(days, 3), ", "))
				}
			}
		}
	}

	return strings.TrimSpace(b.String())
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func docMaps(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// topSymptoms orders symptoms by count descending, ties alphabetical.
func topSymptoms(v any) []string {
	counts, ok := v.(map[string]int)
	if !ok || len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
