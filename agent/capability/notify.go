package capability

import (
	"context"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

func (g *Gateway) sendDoctorNotification(ctx context.Context, args map[string]any) map[string]any {
	provider, err := g.notifier.Send(ctx, contractx.Notification{
		Recipient: argString(args, "doctor_email"),
		Title:     argString(args, "title"),
		Body:      argString(args, "message"),
		Kind:      argString(args, "notification_type"),
	})
	if err != nil {
		return errPayload(err.Error())
	}

	return okPayload(map[string]any{
		"provider": provider,
		"message":  "Notification sent successfully",
	})
}
