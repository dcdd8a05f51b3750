package state

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNilSession     = errors.New("session must not be nil")
	ErrInvalidSession = errors.New("session id must not be empty")
	ErrUserRequired   = errors.New("user email is required for conversation isolation")
)

// Message roles recorded in a transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultWindowSize bounds how much history is replayed to the model.
const DefaultWindowSize = 10

// doctorSessionPrefix marks analytics sessions opened by a doctor rather
// than a patient.
const doctorSessionPrefix = "doctor_"

// SessionKey addresses one conversation.
// - Both parts are mandatory: stored state is never reachable through a
//   session id alone, so two users sharing a session id cannot observe
//   each other's conversation.
// - The zero value never validates.
type SessionKey struct {
	SessionID string `json:"session_id"`
	UserEmail string `json:"user_email"`
}

// NewSessionKey trims and validates both parts.
func NewSessionKey(sessionID, userEmail string) (SessionKey, error) {
	key := SessionKey{
		SessionID: strings.TrimSpace(sessionID),
		UserEmail: strings.TrimSpace(userEmail),
	}
	if err := key.Validate(); err != nil {
		return SessionKey{}, err
	}
	return key, nil
}

func (k SessionKey) Validate() error {
	if strings.TrimSpace(k.SessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(k.UserEmail) == "" {
		return ErrUserRequired
	}
	return nil
}

// IsDoctorSession reports whether the conversation runs in the doctor
// analytics role instead of the patient booking role.
func (k SessionKey) IsDoctorSession() bool {
	return strings.HasPrefix(k.SessionID, doctorSessionPrefix)
}

// String renders a stable composite form usable as a lock or log key.
func (k SessionKey) String() string {
	return k.SessionID + "::" + k.UserEmail
}

// Message is one transcript entry.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	At         time.Time `json:"at"`
}

// Session holds the transcript of one conversation.
type Session struct {
	Key       SessionKey `json:"key"`
	Messages  []Message  `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession creates an empty transcript for the key.
func NewSession(key SessionKey, now time.Time) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &Session{Key: key, CreatedAt: now, UpdatedAt: now}, nil
}

/* --------------------------- Transcript helpers --------------------------- */

// Append records a message and advances UpdatedAt.
func (s *Session) Append(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	if msg.At.After(s.UpdatedAt) {
		s.UpdatedAt = msg.At
	}
}

func (s *Session) AppendUser(text string, at time.Time) {
	s.Append(Message{Role: RoleUser, Content: text, At: at})
}

func (s *Session) AppendAssistant(text string, at time.Time) {
	s.Append(Message{Role: RoleAssistant, Content: text, At: at})
}

// AppendToolResult records a capability result envelope.
func (s *Session) AppendToolResult(callID, toolName, payload string, at time.Time) {
	s.Append(Message{
		Role:       RoleTool,
		Content:    payload,
		ToolName:   toolName,
		ToolCallID: callID,
		At:         at,
	})
}

// Window returns the user and assistant messages among the most recent
// size entries. Tool messages stay in the transcript but are never
// replayed across turns.
func (s *Session) Window(size int) []Message {
	if size <= 0 {
		size = DefaultWindowSize
	}
	msgs := s.Messages
	if len(msgs) > size {
		msgs = msgs[len(msgs)-size:]
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// Touch advances UpdatedAt, extending the session's life.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Validate checks structural integrity before a save.
func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	return s.Key.Validate()
}
