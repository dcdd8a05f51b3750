package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

// LoadTranscript resolves the conversation for the session key and
// records the incoming user message.
func LoadTranscript(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := loadOrCreateSession(ctx, store, in.Key, in.Now)
	if err != nil {
		return nil, err
	}

	sess.AppendUser(in.Text, in.Now)
	in.Session = sess
	return in, nil
}

func loadOrCreateSession(
	ctx context.Context,
	store statex.Store,
	key statex.SessionKey,
	now time.Time,
) (*statex.Session, error) {
	sess, err := store.Load(ctx, key)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, statex.ErrSessionNotFound) {
		return nil, err
	}

	return statex.NewSession(key, now)
}
