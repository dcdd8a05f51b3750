package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

// RecordOutcome persists the transcript and, when the turn produced an
// answer, advances the conversation's memory counters. The exhausted
// no-results path keeps the transcript but leaves memory untouched.
func RecordOutcome(
	ctx context.Context,
	in *GraphState,
	sessions statex.Store,
	memory memoryx.Store,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.Touch(in.Now)
	if err := sessions.Save(ctx, in.Session); err != nil {
		return nil, err
	}

	if in.FailureReason == "" {
		if err := memory.UpdateMessageCount(ctx, in.Key, in.Text, in.Response); err != nil {
			return nil, err
		}
	}

	return in, nil
}
