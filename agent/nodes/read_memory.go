package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
)

// ReadMemory renders the conversation memory block for the system
// prompt. An empty block means nothing is known yet.
func ReadMemory(ctx context.Context, in *GraphState, memory memoryx.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	prompt, err := memory.ContextForPrompt(ctx, in.Key)
	if err != nil {
		return nil, err
	}

	in.MemoryPrompt = prompt
	return in, nil
}
