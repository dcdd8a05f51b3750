package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	memoryx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/memory"
	statex "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/state"
)

func fixedNow() time.Time {
	return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
}

type fakeCompleter struct {
	responses []*schema.Message
	err       error
	calls     int
	vars      []contractx.PromptVars
	histories [][]*schema.Message
}

func (f *fakeCompleter) Complete(
	ctx context.Context,
	vars contractx.PromptVars,
	history []*schema.Message,
) (*schema.Message, error) {
	f.calls++
	f.vars = append(f.vars, vars)
	f.histories = append(f.histories, append([]*schema.Message(nil), history...))
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		return nil, fmt.Errorf("no completion scripted at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type fakeRegistry struct {
	patient contractx.ChatCompleter
	doctor  contractx.ChatCompleter
}

func (f *fakeRegistry) Patient() contractx.ChatCompleter {
	return f.patient
}

func (f *fakeRegistry) Doctor() contractx.ChatCompleter {
	return f.doctor
}

type fakeGateway struct {
	payloads map[string]map[string]any
	err      error
	calls    []contractx.CapabilityCall
}

func (f *fakeGateway) Catalog() []*schema.ToolInfo {
	return nil
}

func (f *fakeGateway) Invoke(ctx context.Context, call contractx.CapabilityCall) (contractx.CapabilityResult, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return contractx.CapabilityResult{}, f.err
	}
	payload, ok := f.payloads[call.Name]
	if !ok {
		payload = map[string]any{"success": true}
	}
	return contractx.CapabilityResult{ID: call.ID, Name: call.Name, Payload: payload}, nil
}

type fakeRoster struct {
	summary string
	err     error
	calls   int
}

func (f *fakeRoster) RosterSummary(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type testEnv struct {
	orch     *Orchestrator
	sessions *statex.InMemoryStore
	memory   *memoryx.InMemoryStore
	patient  *fakeCompleter
	doctor   *fakeCompleter
	gateway  *fakeGateway
	roster   *fakeRoster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions: statex.NewInMemoryStore(),
		memory:   memoryx.NewInMemoryStore(),
		patient:  &fakeCompleter{},
		doctor:   &fakeCompleter{},
		gateway:  &fakeGateway{payloads: map[string]map[string]any{}},
		roster:   &fakeRoster{summary: "- Dr. Asha Rao (Cardiology) - Available: Monday, Tuesday, Wednesday"},
	}

	orch, err := New(
		env.sessions,
		&fakeRegistry{patient: env.patient, doctor: env.doctor},
		env.gateway,
		env.memory,
		env.roster,
		Config{},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	orch.now = fixedNow
	env.orch = orch
	return env
}

func prose(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

func toolCallMsg(id, name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}})
}

func availabilityPayload() map[string]any {
	return map[string]any{
		"success":         true,
		"doctor_name":     "Dr. Asha Rao",
		"date":            "2025-03-11",
		"available_slots": []string{"09:00", "09:30"},
	}
}

func TestProcessRequiresUserEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		Text:      "hello",
	})
	if !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if env.patient.calls != 0 {
		t.Fatalf("completer must not run without a user identity, got %d calls", env.patient.calls)
	}
}

func TestProcessRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "   ",
	})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestProcessProseReply(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.responses = []*schema.Message{prose("Hello! How can I help you today?")}

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "hi",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Response != "Hello! How can I help you today?" {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if result.Iterations != 1 || result.CapabilityCalls != 0 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if env.roster.calls != 1 {
		t.Fatalf("expected one roster fetch, got %d", env.roster.calls)
	}
	if got := env.patient.vars[0].CurrentDate; got != "2025-03-10" {
		t.Fatalf("unexpected current date: %q", got)
	}
	if !strings.Contains(env.patient.vars[0].Roster, "Dr. Asha Rao") {
		t.Fatalf("roster missing from prompt vars: %q", env.patient.vars[0].Roster)
	}

	key, err := statex.NewSessionKey("s1", "jane@example.com")
	if err != nil {
		t.Fatalf("NewSessionKey() error = %v", err)
	}
	saved, err := env.sessions.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(saved.Messages) != 2 {
		t.Fatalf("expected 2 transcript messages, got %d", len(saved.Messages))
	}
	if saved.Messages[0].Role != statex.RoleUser || saved.Messages[1].Role != statex.RoleAssistant {
		t.Fatalf("unexpected transcript roles: %+v", saved.Messages)
	}
}

func TestProcessToolCallThenProse(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gateway.payloads["get_doctor_availability"] = availabilityPayload()
	env.patient.responses = []*schema.Message{
		toolCallMsg("call_1", "get_doctor_availability", `{"doctor_name":"Dr. Asha Rao","date":"2025-03-11"}`),
		prose("Dr. Asha Rao is free at 09:00 and 09:30 on March 11."),
	}

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "When is Dr. Rao free?",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success || result.Iterations != 2 || result.CapabilityCalls != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(env.gateway.calls) != 1 {
		t.Fatalf("expected one capability call, got %d", len(env.gateway.calls))
	}
	call := env.gateway.calls[0]
	if call.Name != "get_doctor_availability" || call.ID != "call_1" {
		t.Fatalf("unexpected capability call: %+v", call)
	}
	if call.Args["doctor_name"] != "Dr. Asha Rao" {
		t.Fatalf("unexpected call args: %v", call.Args)
	}
	if call.Scope == nil || call.Scope.UserEmail != "jane@example.com" {
		t.Fatalf("capability call must carry the conversation scope, got %+v", call.Scope)
	}

	key, _ := statex.NewSessionKey("s1", "jane@example.com")
	saved, err := env.sessions.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	roles := make([]string, 0, len(saved.Messages))
	for _, m := range saved.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{statex.RoleUser, statex.RoleTool, statex.RoleAssistant}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected transcript roles: %v", roles)
	}

	// The second model call must see the tool envelope in its working set.
	second := env.patient.histories[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 working messages on second call, got %d", len(second))
	}
	if second[2].Role != schema.Tool {
		t.Fatalf("expected tool message, got %s", second[2].Role)
	}
}

func TestProcessIterationCapSynthesizesWithWarning(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gateway.payloads["get_doctor_availability"] = availabilityPayload()
	env.patient.responses = []*schema.Message{
		toolCallMsg("call_1", "get_doctor_availability", `{"doctor_name":"Dr. Asha Rao","date":"2025-03-11"}`),
		toolCallMsg("call_2", "get_doctor_availability", `{"doctor_name":"Dr. Asha Rao","date":"2025-03-11"}`),
	}

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID:     "s1",
		UserEmail:     "jane@example.com",
		Text:          "When is Dr. Rao free?",
		MaxIterations: 2,
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success with warning")
	}
	if result.Warning != "Max iterations reached - LLM may not be responding properly" {
		t.Fatalf("unexpected warning: %q", result.Warning)
	}
	if result.Iterations != 2 || result.CapabilityCalls != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if !strings.Contains(result.Response, "Dr. Asha Rao has 2 available slots on 2025-03-11.") {
		t.Fatalf("expected synthesized availability, got %q", result.Response)
	}
	if !strings.Contains(result.Response, "Available times: 09:00, 09:30") {
		t.Fatalf("expected slot listing, got %q", result.Response)
	}
}

func TestProcessEmptyProseSynthesizesFromResults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gateway.payloads["get_doctor_availability"] = availabilityPayload()
	env.patient.responses = []*schema.Message{
		toolCallMsg("call_1", "get_doctor_availability", `{"doctor_name":"Dr. Asha Rao","date":"2025-03-11"}`),
		prose("   "),
	}

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "When is Dr. Rao free?",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning: %q", result.Warning)
	}
	if !strings.Contains(result.Response, "Dr. Asha Rao has 2 available slots") {
		t.Fatalf("expected synthesized response, got %q", result.Response)
	}
}

func TestProcessProviderFallbackBookingPrompt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.err = fmt.Errorf("%w: connect timeout", contractx.ErrProvider)

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "I want to book an appointment",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success || result.Iterations != 1 || result.CapabilityCalls != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	want := "I can help you book an appointment. Please provide the doctor's name, preferred date, and time."
	if result.Response != want {
		t.Fatalf("unexpected fallback reply: %q", result.Response)
	}
}

func TestProcessProviderFallbackAvailabilityCall(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.err = fmt.Errorf("%w: connect timeout", contractx.ErrProvider)
	env.gateway.payloads["get_doctor_availability"] = availabilityPayload()

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID:     "s1",
		UserEmail:     "jane@example.com",
		Text:          "Is Dr. Rao available on 2025-03-11?",
		MaxIterations: 2,
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if len(env.gateway.calls) != 2 {
		t.Fatalf("expected fallback capability calls on both iterations, got %d", len(env.gateway.calls))
	}
	if env.gateway.calls[0].Args["doctor_name"] != "Dr. Asha Rao" {
		t.Fatalf("fallback must resolve the roster doctor, got %v", env.gateway.calls[0].Args)
	}
	if env.gateway.calls[0].Args["date"] != "2025-03-11" {
		t.Fatalf("fallback must extract the date, got %v", env.gateway.calls[0].Args)
	}
	if result.Warning == "" {
		t.Fatal("expected iteration cap warning")
	}
	if !strings.Contains(result.Response, "available slots on 2025-03-11") {
		t.Fatalf("expected synthesized availability, got %q", result.Response)
	}
}

func TestProcessProviderFallbackOverview(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.err = fmt.Errorf("%w: connect timeout", contractx.ErrProvider)

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "what can you do",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := "I can help you with booking appointments, checking doctor availability, or generating reports. What would you like to do?"
	if result.Response != want {
		t.Fatalf("unexpected fallback reply: %q", result.Response)
	}
}

func TestProcessDoctorSessionUsesDoctorCompleter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.doctor.responses = []*schema.Message{prose("You had 12 appointments today.")}

	result, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "doctor_1_1700000000",
		UserEmail: "dr.rao@hospital.com",
		Text:      "I am Dr. Asha Rao. How many appointments did I have today?",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Response != "You had 12 appointments today." {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if env.doctor.calls != 1 || env.patient.calls != 0 {
		t.Fatalf("expected doctor completer only, got doctor=%d patient=%d", env.doctor.calls, env.patient.calls)
	}
	if env.roster.calls != 0 {
		t.Fatalf("doctor sessions must not fetch the roster, got %d", env.roster.calls)
	}
}

func TestProcessCrossUserIsolation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.responses = []*schema.Message{
		prose("Hi Alice!"),
		prose("Hi again Alice!"),
		prose("Hi Bob!"),
	}

	for _, turn := range []struct {
		email string
		text  string
	}{
		{email: "alice@example.com", text: "hello"},
		{email: "alice@example.com", text: "anyone there?"},
		{email: "bob@example.com", text: "hi"},
	} {
		if _, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
			SessionID: "shared-session",
			UserEmail: turn.email,
			Text:      turn.text,
		}); err != nil {
			t.Fatalf("Process(%s) error = %v", turn.email, err)
		}
	}

	// Alice's second turn replays her first exchange; Bob's turn, despite
	// the shared session id, starts from an empty transcript.
	if got := len(env.patient.histories[1]); got != 3 {
		t.Fatalf("expected 3 history messages for alice's second turn, got %d", got)
	}
	if got := len(env.patient.histories[2]); got != 1 {
		t.Fatalf("expected 1 history message for bob, got %d", got)
	}
	if env.patient.histories[2][0].Content != "hi" {
		t.Fatalf("bob's history must hold only his message, got %q", env.patient.histories[2][0].Content)
	}
}

func TestProcessMemoryContextReachesPrompt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.patient.responses = []*schema.Message{prose("Welcome back!")}

	key, err := statex.NewSessionKey("s1", "jane@example.com")
	if err != nil {
		t.Fatalf("NewSessionKey() error = %v", err)
	}
	if err := env.memory.SaveDoctorSelection(context.Background(), key, memoryx.DoctorSelection{
		ID:             1,
		Name:           "Dr. Asha Rao",
		Specialization: "Cardiology",
		SelectedAt:     fixedNow(),
	}); err != nil {
		t.Fatalf("SaveDoctorSelection() error = %v", err)
	}

	if _, err := env.orch.Process(context.Background(), contractx.ProcessRequest{
		SessionID: "s1",
		UserEmail: "jane@example.com",
		Text:      "book the same doctor",
	}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if !strings.Contains(env.patient.vars[0].MemoryContext, "Dr. Asha Rao") {
		t.Fatalf("memory context missing from prompt vars: %q", env.patient.vars[0].MemoryContext)
	}
}
