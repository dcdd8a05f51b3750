package capability

import (
	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func okPayload(fields map[string]any) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	return fields
}

func errPayload(message string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   message,
	}
}

func typedErrPayload(message string, kind contractx.ErrorType) map[string]any {
	return map[string]any{
		"success":    false,
		"error":      message,
		"error_type": string(kind),
	}
}
