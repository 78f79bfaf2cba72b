package queue

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/metrics"
)

// dialTimeout bounds connecting to the broker so a publish stays inside
// the timeout Emit gives it.
const dialTimeout = 2 * time.Second

// Publisher hands events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev ReviewActivityEvent) error
}

// AMQPPublisher opens a connection per event. Activity is low volume, and
// a broker restart never leaves a stale connection behind.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// Publish declares the durable queue and publishes ev as a persistent
// message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ReviewActivityEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReviewActivityEvent) error { return nil }

// Emit publishes ev with a short timeout. Failures are logged and counted,
// never returned: activity events must not fail the request that caused
// them.
func Emit(ctx context.Context, p Publisher, ev ReviewActivityEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := p.Publish(ctx, ev)
	metrics.RecordPublish(ev.Type, err)
	if err != nil {
		logging.Warn().Err(err).Str("type", ev.Type).Uint64("review_id", ev.ReviewID).Msg("queue: publish failed")
	}
}
