package notify

import (
	"context"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

// Multi delivers each event to every notifier in order.
type Multi []scheduling.Notifier

func (m Multi) Notify(ctx context.Context, ev scheduling.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}
