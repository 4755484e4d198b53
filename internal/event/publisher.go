package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"quiz-attempt-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SubmissionRoutingKey is the routing key of committed quiz submissions.
const SubmissionRoutingKey = "quiz.submitted"

// DefaultExchange is used when no exchange is configured.
const DefaultExchange = "quiz.events"

// Envelope is the JSON body of every published event.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Publisher publishes quiz events to a RabbitMQ topic exchange.
// A Publisher built without a URL is disabled and only logs.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
	logger   *slog.Logger
}

func NewPublisher(amqpURL, exchange string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if amqpURL == "" {
		logger.Info("rabbitmq url not configured, event publishing disabled")
		return &Publisher{exchange: exchange, logger: logger}, nil
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger.Info("event publisher ready", slog.String("exchange", exchange))
	return &Publisher{conn: conn, channel: ch, exchange: exchange, enabled: true, logger: logger}, nil
}

// PublishSubmission implements app.EventPublisher.
func (p *Publisher) PublishSubmission(ctx context.Context, ev domain.SubmissionEvent) error {
	return p.publish(ctx, SubmissionRoutingKey, ev, ev.SubmittedAt)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload interface{}, at time.Time) error {
	body, err := json.Marshal(Envelope{Type: routingKey, OccurredAt: at, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if !p.enabled {
		p.logger.Debug("event publishing disabled, skipping", slog.String("type", routingKey))
		return nil
	}
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    at,
			Body:         body,
		},
	)
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
