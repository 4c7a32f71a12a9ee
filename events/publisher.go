package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

const publishTimeout = 3 * time.Second

// Publisher sends booking events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON publishes v under key. messageID lets consumers drop redeliveries.
func (p *Publisher) PublishJSON(ctx context.Context, key, messageID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		MessageId:    messageID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

// Envelope is the message body consumers receive.
type Envelope struct {
	ID         string               `json:"id"`
	Event      string               `json:"event"`
	BookingID  uint                 `json:"booking_id"`
	CustomerID uint                 `json:"customer_id"`
	WorkerID   *uint                `json:"worker_id,omitempty"`
	FromStatus models.BookingStatus `json:"from_status,omitempty"`
	ToStatus   models.BookingStatus `json:"to_status,omitempty"`
	ActorID    uint                 `json:"actor_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
	Booking    models.Booking       `json:"booking"`
}

func NewEnvelope(ev services.BookingEvent) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Event:      ev.Type,
		BookingID:  ev.Booking.ID,
		CustomerID: ev.Booking.CustomerID,
		WorkerID:   ev.Booking.WorkerID,
		FromStatus: ev.FromStatus,
		ToStatus:   ev.ToStatus,
		ActorID:    ev.ActorID,
		OccurredAt: ev.OccurredAt,
		Booking:    ev.Booking,
	}
}

// RoutingKey is the event type, with the target status appended for
// status changes, e.g. "booking.status_changed.confirmed".
func RoutingKey(ev services.BookingEvent) string {
	if ev.Type == services.EventBookingStatusChanged && ev.ToStatus != "" {
		return ev.Type + "." + string(ev.ToStatus)
	}
	return ev.Type
}

// Notify implements services.Notifier. Failures are logged, never returned:
// the booking is already committed.
func (p *Publisher) Notify(ctx context.Context, ev services.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	key := RoutingKey(ev)
	env := NewEnvelope(ev)
	if err := p.PublishJSON(ctx, key, env.ID, env); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"routing_key": key,
			"booking_id":  ev.Booking.ID,
		}).WithError(err).Error("publish booking event")
	}
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
