package contract

import (
	"errors"

	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

var (
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrProvider      = errors.New("chat completion provider unavailable")
	ErrPromptMissing = errors.New("required prompt is missing")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("appointment slot conflict")
	ErrNotFound      = errors.New("record not found")

	// ErrIsolation is state.ErrUserRequired seen at the contract surface:
	// no memory-scoped operation runs without a user identity.
	ErrIsolation = statex.ErrUserRequired
)
