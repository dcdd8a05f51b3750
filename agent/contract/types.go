package contract

import (
	"encoding/json"

	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

type AgentType string

const (
	AgentTypePatient AgentType = "patient"
	AgentTypeDoctor  AgentType = "doctor"
)

// DefaultMaxIterations bounds model calls within one conversation turn.
const DefaultMaxIterations = 5

// ErrorType classifies capability failures inside result envelopes.
type ErrorType string

const (
	ErrorTypeDate       ErrorType = "date"
	ErrorTypeTime       ErrorType = "time"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
)

type ProcessRequest struct {
	SessionID     string `json:"session_id"`
	UserEmail     string `json:"user_email"`
	Text          string `json:"text"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

type ProcessResult struct {
	Success         bool   `json:"success"`
	Response        string `json:"response"`
	CapabilityCalls int    `json:"capability_calls"`
	Iterations      int    `json:"iterations"`
	Warning         string `json:"warning,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
}

// PromptVars fills the per-turn slots of the system prompt template.
type PromptVars struct {
	Roster        string `json:"roster"`
	MemoryContext string `json:"memory_context"`
	CurrentDate   string `json:"current_date"`
}

type CapabilityCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`

	// Scope attributes memory writes to the conversation that caused the
	// call. Direct, non-conversational invocations leave it nil.
	Scope *statex.SessionKey `json:"scope,omitempty"`
}

// CapabilityResult is the JSON envelope a capability hands back. Payload
// always carries "success"; failures add "error" and optionally
// "error_type".
type CapabilityResult struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

func (r CapabilityResult) Succeeded() bool {
	ok, _ := r.Payload["success"].(bool)
	return ok
}

// JSON renders the payload for the model's tool message.
func (r CapabilityResult) JSON() string {
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return `{"success":false,"error":"unserializable capability result"}`
	}
	return string(raw)
}

type Notification struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
}

type ConfirmationEmail struct {
	To             string `json:"to"`
	PatientName    string `json:"patient_name"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Location       string `json:"location"`
}
