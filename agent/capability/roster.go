package capability

import (
	"context"
)

func (g *Gateway) listDoctors(ctx context.Context, args map[string]any) map[string]any {
	doctors, err := g.store.ListDoctors(ctx, argString(args, "specialization"))
	if err != nil {
		return errPayload(err.Error())
	}

	list := make([]map[string]any, 0, len(doctors))
	for _, doctor := range doctors {
		list = append(list, doctor.AsMap())
	}

	return okPayload(map[string]any{
		"count":   len(doctors),
		"doctors": list,
	})
}
