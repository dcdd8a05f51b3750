package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

var ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)

type GraphInput struct {
	SessionID     string
	UserEmail     string
	Text          string
	MaxIterations int
}

type GraphOutput struct {
	Result contractx.ProcessResult
}

type GraphState struct {
	Key           statex.SessionKey
	Text          string
	Now           time.Time
	MaxIterations int

	Session      *statex.Session
	MemoryPrompt string
	Roster       string

	Response      string
	Warning       string
	FailureReason string
	Iterations    int
	Results       []contractx.CapabilityResult
}

// ValidateRequest checks the turn before any state is touched. A
// missing user email fails here with statex.ErrUserRequired, so an
// unidentified caller can never reach another user's conversation.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	key, err := statex.NewSessionKey(in.SessionID, in.UserEmail)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	iterations := in.MaxIterations
	if iterations <= 0 {
		iterations = contractx.DefaultMaxIterations
	}

	return &GraphState{
		Key:           key,
		Text:          text,
		Now:           nowFn().UTC(),
		MaxIterations: iterations,
	}, nil
}
