package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ChatCompleter runs one tool-bound model call over the conversation so
// far. The returned message carries prose, capability calls, or both.
type ChatCompleter interface {
	Complete(ctx context.Context, vars PromptVars, history []*schema.Message) (*schema.Message, error)
}

type Registry interface {
	Patient() ChatCompleter
	Doctor() ChatCompleter
}

// CapabilityGateway dispatches over the closed capability set. Invoke
// returns an error only on context cancellation; every other failure is
// reported inside the result envelope.
type CapabilityGateway interface {
	Catalog() []*schema.ToolInfo
	Invoke(ctx context.Context, call CapabilityCall) (CapabilityResult, error)
}

type RosterProvider interface {
	RosterSummary(ctx context.Context) (string, error)
}

type Notifier interface {
	Send(ctx context.Context, note Notification) (provider string, err error)
}

type Mailer interface {
	SendAppointmentConfirmation(ctx context.Context, email ConfirmationEmail) (provider string, err error)
}
