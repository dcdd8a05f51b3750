package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	schedulex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/schedule"
)

// Store is the persistence surface capabilities read and write.
// *schedule.Repo satisfies it, inside and outside a transaction.
type Store interface {
	FindDoctorByName(ctx context.Context, name string) (*schedulex.Doctor, error)
	ListDoctors(ctx context.Context, specialization string) ([]*schedulex.Doctor, error)
	ActiveAppointmentsOn(ctx context.Context, doctorID int64, date time.Time) ([]*schedulex.Appointment, error)
	AppointmentsBetween(ctx context.Context, doctorID int64, start, end time.Time) ([]*schedulex.Appointment, error)
	FindOrCreatePatient(ctx context.Context, name, email string) (*schedulex.Patient, error)
	CreateAppointment(ctx context.Context, appt *schedulex.Appointment) error
	SetCalendarEventID(ctx context.Context, id int64, eventID string) error
	GetAppointment(ctx context.Context, id int64) (*schedulex.Appointment, error)
}

var _ Store = (*schedulex.Repo)(nil)

// Deps wires the gateway into the rest of the system.
type Deps struct {
	DB        *bun.DB
	Repo      *schedulex.Repo
	Validator *schedulex.Validator
	Memory    memoryx.Store
	Mailer    contractx.Mailer
	Notifier  contractx.Notifier
}

// Option customizes a Gateway.
type Option func(*Gateway)

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// Gateway dispatches capability calls over the closed set in the
// catalog. Every failure except context cancellation stays inside the
// result envelope so the model can read it and recover.
type Gateway struct {
	store     Store
	inTx      func(ctx context.Context, fn func(Store) error) error
	validator *schedulex.Validator
	memory    memoryx.Store
	mailer    contractx.Mailer
	notifier  contractx.Notifier
	now       func() time.Time
}

var _ contractx.CapabilityGateway = (*Gateway)(nil)

func New(deps Deps, opts ...Option) (*Gateway, error) {
	if deps.DB == nil {
		return nil, errors.New("capability gateway requires a database handle")
	}
	if deps.Repo == nil {
		return nil, errors.New("capability gateway requires a schedule repo")
	}
	if deps.Validator == nil {
		return nil, errors.New("capability gateway requires a validator")
	}
	if deps.Memory == nil {
		return nil, errors.New("capability gateway requires a memory store")
	}
	if deps.Mailer == nil {
		return nil, errors.New("capability gateway requires a mailer")
	}
	if deps.Notifier == nil {
		return nil, errors.New("capability gateway requires a notifier")
	}

	db, repo := deps.DB, deps.Repo
	g := &Gateway{
		store: repo,
		inTx: func(ctx context.Context, fn func(Store) error) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				return fn(repo.WithTx(tx))
			})
		},
		validator: deps.Validator,
		memory:    deps.Memory,
		mailer:    deps.Mailer,
		notifier:  deps.Notifier,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

func (g *Gateway) Catalog() []*schema.ToolInfo {
	return Catalog()
}

// Invoke runs one capability call and returns its result envelope. The
// error return is reserved for context cancellation.
func (g *Gateway) Invoke(ctx context.Context, call contractx.CapabilityCall) (result contractx.CapabilityResult, err error) {
	result = contractx.CapabilityResult{ID: call.ID, Name: call.Name}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("capability", call.Name).Any("panic", rec).Msg("capability panicked")
			result.Payload = errPayload(fmt.Sprintf("capability execution failed: %v", rec))
			err = nil
		}
	}()

	required, known := requiredParams[call.Name]
	if !known {
		result.Payload = errPayload(fmt.Sprintf("Capability '%s' not found", call.Name))
		return result, nil
	}
	if missing := missingParam(call.Args, required); missing != "" {
		result.Payload = typedErrPayload("missing required parameter: "+missing, contractx.ErrorTypeValidation)
		return result, nil
	}

	switch call.Name {
	case CapabilityDoctorAvailability:
		result.Payload = g.doctorAvailability(ctx, call.Args)
	case CapabilityBookAppointment:
		result.Payload = g.bookAppointment(ctx, call)
	case CapabilitySendPatientEmail:
		result.Payload = g.sendPatientEmail(ctx, call.Args)
	case CapabilityDoctorStats:
		result.Payload = g.doctorStats(ctx, call.Args)
	case CapabilityDoctorNotification:
		result.Payload = g.sendDoctorNotification(ctx, call.Args)
	case CapabilityListDoctors:
		result.Payload = g.listDoctors(ctx, call.Args)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, nil
}
