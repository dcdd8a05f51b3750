package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// LoadRoster fetches the doctor roster rendered into the patient
// system prompt. Doctor analytics sessions have no roster slot, so the
// lookup is skipped there.
func LoadRoster(ctx context.Context, in *GraphState, roster contractx.RosterProvider) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Key.IsDoctorSession() {
		return in, nil
	}

	summary, err := roster.RosterSummary(ctx)
	if err != nil {
		return nil, err
	}

	in.Roster = summary
	return in, nil
}
