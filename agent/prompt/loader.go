package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

var (
	//go:embed template/patient_system.txt
	patientRaw string

	//go:embed template/doctor_system.txt
	doctorRaw string
)

// PromptSet holds the system prompts for both chat variants. The
// templates carry {roster}, {memory_context} and {current_date} slots
// filled at completion time.
type PromptSet struct {
	Patient string
	Doctor  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() (PromptSet, error) {
	set := PromptSet{
		Patient: strings.TrimSpace(patientRaw),
		Doctor:  strings.TrimSpace(doctorRaw),
	}
	if set.Patient == "" {
		return PromptSet{}, fmt.Errorf("%w: patient system prompt", contractx.ErrPromptMissing)
	}
	if set.Doctor == "" {
		return PromptSet{}, fmt.Errorf("%w: doctor system prompt", contractx.ErrPromptMissing)
	}
	return set, nil
}

// ForAgent returns the system prompt for the given variant.
func (s PromptSet) ForAgent(agentType contractx.AgentType) (string, error) {
	switch agentType {
	case contractx.AgentTypePatient:
		return s.Patient, nil
	case contractx.AgentTypeDoctor:
		return s.Doctor, nil
	default:
		return "", fmt.Errorf("%w: unknown agent type %q", contractx.ErrPromptMissing, agentType)
	}
}
