package orchestratornode

import (
	"encoding/json"
	"testing"
)

const testRoster = "- Dr. Asha Rao (Cardiology) - Available: Monday, Tuesday\n" +
	"- Dr. Vikram Iyer (Dermatology) - Available: Saturday"

func TestFallbackAvailabilityBecomesCapabilityCall(t *testing.T) {
	t.Parallel()

	msg := fallbackMessage("Is Rao available on 2025-03-11?", testRoster)

	if msg.Content != "" {
		t.Fatalf("expected no prose, got %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected one capability call, got %d", len(msg.ToolCalls))
	}
	call := msg.ToolCalls[0]
	if call.Function.Name != "get_doctor_availability" {
		t.Fatalf("expected availability call, got %q", call.Function.Name)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		t.Fatalf("unmarshal arguments: %v", err)
	}
	if args["doctor_name"] != "Dr. Asha Rao" || args["date"] != "2025-03-11" {
		t.Fatalf("unexpected arguments %v", args)
	}
}

func TestFallbackMatchesLaterRosterLines(t *testing.T) {
	t.Parallel()

	msg := fallbackMessage("check iyer availability for 2025-03-15", testRoster)

	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected one capability call, got %d", len(msg.ToolCalls))
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(msg.ToolCalls[0].Function.Arguments), &args); err != nil {
		t.Fatalf("unmarshal arguments: %v", err)
	}
	if args["doctor_name"] != "Dr. Vikram Iyer" {
		t.Fatalf("expected Dr. Vikram Iyer, got %q", args["doctor_name"])
	}
}

func TestFallbackAvailabilityWithoutDoctorGetsOverview(t *testing.T) {
	t.Parallel()

	msg := fallbackMessage("anyone available next week?", testRoster)

	if len(msg.ToolCalls) != 0 {
		t.Fatalf("expected no capability calls, got %d", len(msg.ToolCalls))
	}
	if msg.Content != fallbackOverviewReply {
		t.Fatalf("expected overview reply, got %q", msg.Content)
	}
}

func TestFallbackBookingPrompt(t *testing.T) {
	t.Parallel()

	msg := fallbackMessage("I want to book a checkup", testRoster)

	if msg.Content != fallbackBookReply {
		t.Fatalf("expected booking prompt, got %q", msg.Content)
	}
}

func TestMatchRosterDoctorSkipsShortTokens(t *testing.T) {
	t.Parallel()

	if got := matchRosterDoctor("is dr free tomorrow", testRoster); got != "" {
		t.Fatalf("expected no match on the dr token, got %q", got)
	}
	if got := matchRosterDoctor("asha please", testRoster); got != "Dr. Asha Rao" {
		t.Fatalf("expected first-name match, got %q", got)
	}
}
