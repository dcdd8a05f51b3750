package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
	"github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/keymutex"
)

// BunStore persists conversation memory in the conversation_contexts
// table. Merges happen in Go under a per-key lock and are written back
// whole, so concurrent helpers on one key never lose each other's
// updates.
type BunStore struct {
	settings

	db    bun.IDB
	locks *keymutex.Locker
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db bun.IDB, opts ...Option) *BunStore {
	return &BunStore{
		settings: newSettings(opts...),
		db:       db,
		locks:    keymutex.New(),
	}
}

// InitSchema creates the table and its indexes when absent.
func (s *BunStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversation_contexts table: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS conversation_contexts_session_user_idx
			ON conversation_contexts (session_id, patient_email)`,
		`CREATE INDEX IF NOT EXISTS conversation_contexts_expires_at_idx
			ON conversation_contexts (expires_at)`,
	}
	for _, ddl := range indexes {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create conversation_contexts index: %w", err)
		}
	}
	return nil
}

func (s *BunStore) GetOrCreate(ctx context.Context, key statex.SessionKey) (*MemoryContext, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.locks.Lock(key.String())
	defer s.locks.Unlock(key.String())

	rec, err := s.getOrCreateLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	snapshot := rec.Context
	return &snapshot, nil
}

func (s *BunStore) Update(ctx context.Context, key statex.SessionKey, patch MemoryContext) error {
	return s.mutate(ctx, key, func(rec *Record) {
		rec.Context.Merge(patch)
	})
}

func (s *BunStore) SaveDoctorSelection(ctx context.Context, key statex.SessionKey, sel DoctorSelection) error {
	return s.mutate(ctx, key, func(rec *Record) {
		if sel.SelectedAt.IsZero() {
			sel.SelectedAt = s.now()
		}
		rec.Context.SelectedDoctor = &sel
	})
}

func (s *BunStore) SaveAttemptedDate(ctx context.Context, key statex.SessionKey, date, reason string) error {
	return s.mutate(ctx, key, func(rec *Record) {
		rec.Context.RecordRejection(date, reason, s.now())
	})
}

func (s *BunStore) SaveSuccessfulBooking(ctx context.Context, key statex.SessionKey, booking BookingRecord) error {
	return s.mutate(ctx, key, func(rec *Record) {
		if booking.BookedAt.IsZero() {
			booking.BookedAt = s.now()
		}
		rec.Context.LastSuccessfulBooking = &booking
	})
}

func (s *BunStore) UpdateMessageCount(ctx context.Context, key statex.SessionKey, userMessage, reply string) error {
	return s.mutate(ctx, key, func(rec *Record) {
		rec.LastMessage = userMessage
		rec.LastResponse = reply
		rec.MessageCount++
	})
}

func (s *BunStore) ContextForPrompt(ctx context.Context, key statex.SessionKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}

	rec, err := s.load(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if !rec.ExpiresAt.After(s.now()) {
		return "", nil
	}
	return rec.Context.RenderPrompt(), nil
}

func (s *BunStore) ExtendExpiry(ctx context.Context, key statex.SessionKey, extra time.Duration) error {
	if extra <= 0 {
		extra = s.ttl
	}
	return s.mutate(ctx, key, func(rec *Record) {
		rec.ExpiresAt = s.now().Add(extra)
	})
}

func (s *BunStore) CleanupExpired(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("expires_at < ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired conversation contexts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired conversation contexts: %w", err)
	}
	return int(affected), nil
}

func (s *BunStore) mutate(ctx context.Context, key statex.SessionKey, fn func(*Record)) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.locks.Lock(key.String())
	defer s.locks.Unlock(key.String())

	rec, err := s.getOrCreateLocked(ctx, key)
	if err != nil {
		return err
	}

	fn(rec)
	rec.UpdatedAt = s.now()

	if _, err := s.db.NewUpdate().
		Model(rec).
		Column("context_data", "last_message", "last_response", "message_count", "updated_at", "expires_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("update conversation context: %w", err)
	}
	return nil
}

func (s *BunStore) load(ctx context.Context, key statex.SessionKey) (*Record, error) {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("session_id = ?", key.SessionID).
		Where("patient_email = ?", key.UserEmail).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// getOrCreateLocked returns the live record for the key, resetting any
// expired row in place. The caller holds the key lock.
func (s *BunStore) getOrCreateLocked(ctx context.Context, key statex.SessionKey) (*Record, error) {
	now := s.now()

	rec, err := s.load(ctx, key)
	if err == nil && rec.ExpiresAt.After(now) {
		return rec, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load conversation context: %w", err)
	}

	fresh := &Record{
		SessionID:    key.SessionID,
		PatientEmail: key.UserEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if _, err := s.db.NewInsert().
		Model(fresh).
		On("CONFLICT (session_id, patient_email) DO UPDATE").
		Set("context_data = EXCLUDED.context_data").
		Set("last_message = EXCLUDED.last_message").
		Set("last_response = EXCLUDED.last_response").
		Set("message_count = EXCLUDED.message_count").
		Set("created_at = EXCLUDED.created_at").
		Set("updated_at = EXCLUDED.updated_at").
		Set("expires_at = EXCLUDED.expires_at").
		Returning("id").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create conversation context: %w", err)
	}
	return fresh, nil
}
