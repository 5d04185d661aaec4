package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const dialTimeout = 10 * time.Second

// Message is the JSON body published for every notification. A mailer
// consuming the exchange renders it by Kind.
type Message struct {
	Kind      domain.NotificationKind `json:"kind"`
	Recipient string                  `json:"recipient"`
	Data      map[string]string       `json:"data,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// RoutingKey returns the topic key a notification kind is published under,
// e.g. notification.transfer_otp.
func RoutingKey(kind domain.NotificationKind) string {
	return "notification." + strings.ToLower(string(kind))
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements ports.NotificationSender on a RabbitMQ topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	log      zerolog.Logger
}

// NewPublisher dials the broker and declares the durable topic exchange.
func NewPublisher(cfg config.AMQPConfig, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Dial: amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dialing amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	p, err := newPublisher(ch, cfg.Exchange, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log zerolog.Logger) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		log:      log.With().Str("component", "notify").Logger(),
	}, nil
}

// Notify publishes one persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, kind domain.NotificationKind, recipient string, data map[string]string) error {
	body, err := json.Marshal(Message{
		Kind:      kind,
		Recipient: recipient,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := RoutingKey(kind)

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.log.Debug().Str("routing_key", key).Str("recipient", recipient).Msg("Notification published")
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *Publisher) Ping(_ context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

func (p *Publisher) Name() string {
	return "rabbitmq"
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
