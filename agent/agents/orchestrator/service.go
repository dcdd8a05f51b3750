package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	nodex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/nodes"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
	"github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/keymutex"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = statex.ErrInvalidSession
	ErrUserRequired   = statex.ErrUserRequired
)

type Config struct {
	MaxIterations int
}

// Orchestrator runs the conversation graph. Turns on the same session
// key are serialized, so concurrent requests cannot interleave their
// transcript writes.
type Orchestrator struct {
	sessions statex.Store
	models   contractx.Registry
	gateway  contractx.CapabilityGateway
	memory   memoryx.Store
	roster   contractx.RosterProvider

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	locks       *keymutex.Locker

	maxIterations int
	now           func() time.Time
}

func New(
	sessions statex.Store,
	models contractx.Registry,
	gateway contractx.CapabilityGateway,
	memory memoryx.Store,
	roster contractx.RosterProvider,
	cfg Config,
) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if gateway == nil {
		return nil, errors.New("capability gateway is required")
	}
	if memory == nil {
		return nil, errors.New("memory store is required")
	}
	if roster == nil {
		return nil, errors.New("roster provider is required")
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = contractx.DefaultMaxIterations
	}

	o := &Orchestrator{
		sessions:      sessions,
		models:        models,
		gateway:       gateway,
		memory:        memory,
		roster:        roster,
		locks:         keymutex.New(),
		maxIterations: maxIterations,
		now:           time.Now,
	}

	graphRunner, err := o.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process handles one user turn end to end.
func (o *Orchestrator) Process(ctx context.Context, req contractx.ProcessRequest) (contractx.ProcessResult, error) {
	lockKey := strings.TrimSpace(req.SessionID) + "::" + strings.TrimSpace(req.UserEmail)
	o.locks.Lock(lockKey)
	defer o.locks.Unlock(lockKey)

	iterations := req.MaxIterations
	if iterations <= 0 {
		iterations = o.maxIterations
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:     req.SessionID,
		UserEmail:     req.UserEmail,
		Text:          req.Text,
		MaxIterations: iterations,
	})
	if err != nil {
		return contractx.ProcessResult{}, err
	}
	return out.Result, nil
}
