package orchestratornode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

const (
	exhaustedWarning = "Max iterations reached - LLM may not be responding properly"
	exhaustedReason  = "Max iterations reached without results"
	exhaustedApology = "I apologize, but I'm having trouble processing your request. Please try again."
)

// RunDialogue drives the bounded tool-calling loop for one turn. Each
// iteration asks the model for either prose or capability calls;
// capability results are fed back until the model answers in prose or
// the iteration cap is hit.
func RunDialogue(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	gateway contractx.CapabilityGateway,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	completer := models.Patient()
	if in.Key.IsDoctorSession() {
		completer = models.Doctor()
	}

	vars := contractx.PromptVars{
		Roster:        in.Roster,
		MemoryContext: in.MemoryPrompt,
		CurrentDate:   in.Now.Format("2006-01-02"),
	}

	working := replayWindow(in.Session)

	for in.Iterations < in.MaxIterations {
		in.Iterations++

		msg, err := completer.Complete(ctx, vars, working)
		if err != nil {
			if !errors.Is(err, contractx.ErrProvider) {
				return nil, err
			}
			log.Warn().Err(err).
				Str("session_id", in.Key.SessionID).
				Int("iteration", in.Iterations).
				Msg("completion provider failed, using rule-based fallback")
			msg = fallbackMessage(in.Text, in.Roster)
		}

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" && len(in.Results) > 0 {
				reply = synthesizeReply(in.Results)
			}
			in.Response = reply
			in.Session.AppendAssistant(reply, in.Now)
			return in, nil
		}

		working = append(working, msg)
		for _, call := range msg.ToolCalls {
			result, err := invokeCapability(ctx, gateway, in.Key, call)
			if err != nil {
				return nil, err
			}
			in.Results = append(in.Results, result)

			payload := result.JSON()
			in.Session.AppendToolResult(call.ID, call.Function.Name, payload, in.Now)
			working = append(working, schema.ToolMessage(payload, call.ID, schema.WithToolName(call.Function.Name)))
		}
	}

	if len(in.Results) > 0 {
		in.Response = synthesizeReply(in.Results)
		in.Warning = exhaustedWarning
		in.Session.AppendAssistant(in.Response, in.Now)
		return in, nil
	}

	in.Response = exhaustedApology
	in.FailureReason = exhaustedReason
	in.Session.AppendAssistant(in.Response, in.Now)
	return in, nil
}

// replayWindow maps the recent transcript into model messages. Tool
// envelopes from earlier turns are not replayed.
func replayWindow(sess *statex.Session) []*schema.Message {
	window := sess.Window(statex.DefaultWindowSize)
	msgs := make([]*schema.Message, 0, len(window))
	for _, m := range window {
		if m.Role == statex.RoleAssistant {
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
			continue
		}
		msgs = append(msgs, schema.UserMessage(m.Content))
	}
	return msgs
}

func invokeCapability(
	ctx context.Context,
	gateway contractx.CapabilityGateway,
	key statex.SessionKey,
	call schema.ToolCall,
) (contractx.CapabilityResult, error) {
	name := strings.TrimSpace(call.Function.Name)

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			// Malformed arguments go back to the model as a failed
			// envelope instead of aborting the turn.
			return contractx.CapabilityResult{
				ID:   call.ID,
				Name: name,
				Payload: map[string]any{
					"success": false,
					"error":   fmt.Sprintf("invalid arguments for %s: %v", name, err),
				},
			}, nil
		}
	}

	return gateway.Invoke(ctx, contractx.CapabilityCall{
		ID:    call.ID,
		Name:  name,
		Args:  args,
		Scope: &key,
	})
}
