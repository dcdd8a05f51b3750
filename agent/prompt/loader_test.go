package prompt

import (
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set, err := LoadPromptSet()
	if err != nil {
		t.Fatalf("LoadPromptSet() error = %v", err)
	}
	if !strings.Contains(set.Patient, "{roster}") {
		t.Fatal("patient prompt must carry the roster slot")
	}
	if !strings.Contains(set.Patient, "{memory_context}") {
		t.Fatal("patient prompt must carry the memory context slot")
	}
	if !strings.Contains(set.Doctor, "{current_date}") {
		t.Fatal("doctor prompt must carry the current date slot")
	}
	if strings.Contains(set.Doctor, "{roster}") {
		t.Fatal("doctor prompt must not reference the roster")
	}
}

func TestPromptsHaveNoStrayBraces(t *testing.T) {
	t.Parallel()

	set, err := LoadPromptSet()
	if err != nil {
		t.Fatalf("LoadPromptSet() error = %v", err)
	}

	allowed := map[string]bool{
		"{roster}":         true,
		"{memory_context}": true,
		"{current_date}":   true,
	}
	for _, text := range []string{set.Patient, set.Doctor} {
		rest := text
		for {
			open := strings.IndexByte(rest, '{')
			if open < 0 {
				break
			}
			close := strings.IndexByte(rest[open:], '}')
			if close < 0 {
				t.Fatalf("unbalanced brace near %q", rest[open:])
			}
			token := rest[open : open+close+1]
			if !allowed[token] {
				t.Fatalf("unexpected template token %q", token)
			}
			rest = rest[open+close+1:]
		}
	}
}

func TestForAgent(t *testing.T) {
	t.Parallel()

	set, err := LoadPromptSet()
	if err != nil {
		t.Fatalf("LoadPromptSet() error = %v", err)
	}

	patient, err := set.ForAgent(contractx.AgentTypePatient)
	if err != nil {
		t.Fatalf("ForAgent(patient) error = %v", err)
	}
	if patient != set.Patient {
		t.Fatal("unexpected patient prompt")
	}

	doctor, err := set.ForAgent(contractx.AgentTypeDoctor)
	if err != nil {
		t.Fatalf("ForAgent(doctor) error = %v", err)
	}
	if doctor != set.Doctor {
		t.Fatal("unexpected doctor prompt")
	}

	if _, err := set.ForAgent(contractx.AgentType("janitor")); err == nil {
		t.Fatal("expected error for unknown agent type")
	}
}
