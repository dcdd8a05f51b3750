package completion

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	llmx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/llm"
	promptx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/prompt"
)

type registryImpl struct {
	patient contractx.ChatCompleter
	doctor  contractx.ChatCompleter
}

var _ contractx.Registry = (*registryImpl)(nil)

func (r *registryImpl) Patient() contractx.ChatCompleter {
	return r.patient
}

func (r *registryImpl) Doctor() contractx.ChatCompleter {
	return r.doctor
}

// NewRegistry compiles the patient and doctor completion graphs, each
// with its own system prompt and model settings, both bound to the same
// capability catalog.
func NewRegistry(ctx context.Context, cfg llmx.Config, catalog []*schema.ToolInfo) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts, err := promptx.LoadPromptSet()
	if err != nil {
		return nil, err
	}

	patientCfg := cfg.ClientConfigFor(contractx.AgentTypePatient)
	patientModel, err := patientCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create patient model: %v", contractx.ErrModelInvoke, err)
	}
	doctorCfg := cfg.ClientConfigFor(contractx.AgentTypeDoctor)
	doctorModel, err := doctorCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create doctor model: %v", contractx.ErrModelInvoke, err)
	}

	patientRunner, err := compileCompletionGraph(ctx, patientModel, prompts.Patient, catalog, "completion.patient")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	doctorRunner, err := compileCompletionGraph(ctx, doctorModel, prompts.Doctor, catalog, "completion.doctor")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &registryImpl{
		patient: &completerImpl{runner: patientRunner},
		doctor:  &completerImpl{runner: doctorRunner},
	}, nil
}
