package memory

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/bun"

	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
	"github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/keymutex"
)

// DefaultTTL is how long a conversation's memory outlives its last
// creation or explicit extension.
const DefaultTTL = 24 * time.Hour

// Record is one stored conversation memory row. Lookups always use the
// full composite key; there is no accessor keyed by session id alone.
type Record struct {
	bun.BaseModel `bun:"table:conversation_contexts,alias:cc"`

	ID           int64         `bun:"id,pk,autoincrement" json:"id"`
	SessionID    string        `bun:"session_id,notnull" json:"session_id"`
	PatientEmail string        `bun:"patient_email,notnull" json:"patient_email"`
	Context      MemoryContext `bun:"context_data,type:jsonb" json:"context_data"`
	LastMessage  string        `bun:"last_message" json:"last_message"`
	LastResponse string        `bun:"last_response" json:"last_response"`
	MessageCount int           `bun:"message_count,notnull,default:0" json:"message_count"`
	CreatedAt    time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time     `bun:"updated_at,notnull" json:"updated_at"`
	ExpiresAt    time.Time     `bun:"expires_at,notnull" json:"expires_at"`
}

// Store is the conversation memory contract. Every method validates the
// composite key, so a caller without a user identity cannot touch any
// record. Read-modify-write helpers are atomic per key.
type Store interface {
	GetOrCreate(ctx context.Context, key statex.SessionKey) (*MemoryContext, error)
	Update(ctx context.Context, key statex.SessionKey, patch MemoryContext) error
	SaveDoctorSelection(ctx context.Context, key statex.SessionKey, sel DoctorSelection) error
	SaveAttemptedDate(ctx context.Context, key statex.SessionKey, date, reason string) error
	SaveSuccessfulBooking(ctx context.Context, key statex.SessionKey, booking BookingRecord) error
	UpdateMessageCount(ctx context.Context, key statex.SessionKey, userMessage, reply string) error
	ContextForPrompt(ctx context.Context, key statex.SessionKey) (string, error)
	ExtendExpiry(ctx context.Context, key statex.SessionKey, extra time.Duration) error
	CleanupExpired(ctx context.Context) (int, error)
}

// Option customizes a store.
type Option func(*settings)

type settings struct {
	ttl time.Duration
	now func() time.Time
}

func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts ...Option) settings {
	s := settings{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// InMemoryStore keeps conversation memory in process memory. It backs
// tests and database-less runs; production uses BunStore.
type InMemoryStore struct {
	settings

	mu    sync.RWMutex
	locks *keymutex.Locker
	data  map[statex.SessionKey]*Record
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		settings: newSettings(opts...),
		locks:    keymutex.New(),
		data:     make(map[statex.SessionKey]*Record),
	}
}

func (s *InMemoryStore) GetOrCreate(ctx context.Context, key statex.SessionKey) (*MemoryContext, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.locks.Lock(key.String())
	defer s.locks.Unlock(key.String())

	rec := s.getOrCreateLocked(key)
	snapshot := rec.Context
	return &snapshot, nil
}

func (s *InMemoryStore) Update(ctx context.Context, key statex.SessionKey, patch MemoryContext) error {
	return s.mutate(key, func(rec *Record) {
		rec.Context.Merge(patch)
	})
}

func (s *InMemoryStore) SaveDoctorSelection(ctx context.Context, key statex.SessionKey, sel DoctorSelection) error {
	return s.mutate(key, func(rec *Record) {
		if sel.SelectedAt.IsZero() {
			sel.SelectedAt = s.now()
		}
		rec.Context.SelectedDoctor = &sel
	})
}

func (s *InMemoryStore) SaveAttemptedDate(ctx context.Context, key statex.SessionKey, date, reason string) error {
	return s.mutate(key, func(rec *Record) {
		rec.Context.RecordRejection(date, reason, s.now())
	})
}

func (s *InMemoryStore) SaveSuccessfulBooking(ctx context.Context, key statex.SessionKey, booking BookingRecord) error {
	return s.mutate(key, func(rec *Record) {
		if booking.BookedAt.IsZero() {
			booking.BookedAt = s.now()
		}
		rec.Context.LastSuccessfulBooking = &booking
	})
}

func (s *InMemoryStore) UpdateMessageCount(ctx context.Context, key statex.SessionKey, userMessage, reply string) error {
	return s.mutate(key, func(rec *Record) {
		rec.LastMessage = userMessage
		rec.LastResponse = reply
		rec.MessageCount++
	})
}

func (s *InMemoryStore) ContextForPrompt(ctx context.Context, key statex.SessionKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	if !ok || !rec.ExpiresAt.After(s.now()) {
		return "", nil
	}
	return rec.Context.RenderPrompt(), nil
}

func (s *InMemoryStore) ExtendExpiry(ctx context.Context, key statex.SessionKey, extra time.Duration) error {
	if extra <= 0 {
		extra = s.ttl
	}
	return s.mutate(key, func(rec *Record) {
		rec.ExpiresAt = s.now().Add(extra)
	})
}

func (s *InMemoryStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, rec := range s.data {
		if !rec.ExpiresAt.After(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

// mutate runs fn on the record under the per-key lock, creating the
// record first when absent or expired.
func (s *InMemoryStore) mutate(key statex.SessionKey, fn func(*Record)) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.locks.Lock(key.String())
	defer s.locks.Unlock(key.String())

	rec := s.getOrCreateLocked(key)
	fn(rec)
	rec.UpdatedAt = s.now()
	return nil
}

func (s *InMemoryStore) getOrCreateLocked(key statex.SessionKey) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.data[key]
	if ok && rec.ExpiresAt.After(now) {
		return rec
	}

	rec = &Record{
		SessionID:    key.SessionID,
		PatientEmail: key.UserEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	s.data[key] = rec
	return rec
}
