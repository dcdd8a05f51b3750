package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{Result: contractx.ProcessResult{
		Success:         in.FailureReason == "",
		Response:        in.Response,
		CapabilityCalls: len(in.Results),
		Iterations:      in.Iterations,
		Warning:         in.Warning,
		FailureReason:   in.FailureReason,
	}}, nil
}
