package orchestratornode

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	fallbackBookReply     = "I can help you book an appointment. Please provide the doctor's name, preferred date, and time."
	fallbackOverviewReply = "I can help you with booking appointments, checking doctor availability, or generating reports. What would you like to do?"
)

var fallbackDateRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// fallbackMessage stands in for the model when the completion provider
// is unavailable. An availability request that names a roster doctor
// and a date becomes a real capability call; everything else gets a
// canned reply.
func fallbackMessage(text, roster string) *schema.Message {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "availability") || strings.Contains(lower, "available") {
		doctor := matchRosterDoctor(lower, roster)
		date := fallbackDateRE.FindString(text)
		if doctor != "" && date != "" {
			args, _ := json.Marshal(map[string]string{"doctor_name": doctor, "date": date})
			return schema.AssistantMessage("", []schema.ToolCall{{
				ID:   "fallback_1",
				Type: "function",
				Function: schema.FunctionCall{
					Name:      "get_doctor_availability",
					Arguments: string(args),
				},
			}})
		}
	}

	if strings.Contains(lower, "book") {
		return schema.AssistantMessage(fallbackBookReply, nil)
	}
	return schema.AssistantMessage(fallbackOverviewReply, nil)
}

// matchRosterDoctor finds the first roster doctor whose name appears in
// the lowercased user text. Roster lines look like
// "- Dr. Asha Rao (Cardiology) - Available: Monday, Tuesday".
func matchRosterDoctor(lower, roster string) string {
	for _, line := range strings.Split(roster, "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
		open := strings.Index(line, " (")
		if open <= 0 {
			continue
		}
		name := line[:open]

		for _, token := range strings.Fields(strings.ToLower(name)) {
			token = strings.Trim(token, ".,")
			if token == "dr" || len(token) < 3 {
				continue
			}
			if strings.Contains(lower, token) {
				return name
			}
		}
	}
	return ""
}
