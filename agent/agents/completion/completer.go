package completion

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

type completerImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.ChatCompleter = (*completerImpl)(nil)

// Complete runs one model call. Provider-side failures come back as
// ErrProvider so the dialogue loop can fall back; context cancellation
// passes through untouched.
func (c *completerImpl) Complete(
	ctx context.Context,
	vars contractx.PromptVars,
	history []*schema.Message,
) (*schema.Message, error) {
	msg, err := c.runner.Invoke(ctx, map[string]any{
		"roster":         vars.Roster,
		"memory_context": vars.MemoryContext,
		"current_date":   vars.CurrentDate,
		"history":        history,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", contractx.ErrProvider, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty completion response", contractx.ErrProvider)
	}
	return msg, nil
}
