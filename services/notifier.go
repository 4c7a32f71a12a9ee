package services

import (
	"context"
	"time"

	"github.com/yeremiapane/service-booking/models"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventPaymentRecorded      = "booking.payment_recorded"
)

type BookingEvent struct {
	Type       string               `json:"event"`
	Booking    models.Booking       `json:"booking"`
	FromStatus models.BookingStatus `json:"from_status,omitempty"`
	ToStatus   models.BookingStatus `json:"to_status,omitempty"`
	ActorID    uint                 `json:"actor_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Notifier receives booking events after their transaction has committed.
// Implementations must not block the request for long.
type Notifier interface {
	Notify(ctx context.Context, ev BookingEvent)
}

type NotifierFunc func(ctx context.Context, ev BookingEvent)

func (f NotifierFunc) Notify(ctx context.Context, ev BookingEvent) {
	f(ctx, ev)
}

type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev BookingEvent) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, BookingEvent) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
