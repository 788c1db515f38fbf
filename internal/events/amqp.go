package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/logger"
)

// DefaultExchange is the topic exchange events are published to
const DefaultExchange = "roadmap_updates"

// AMQPPublisher publishes JSON events to a RabbitMQ topic exchange.
// The channel is reopened after a failed publish.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *logger.Logger
}

// DialAMQP connects to the broker and declares the exchange
func DialAMQP(url, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	p := &AMQPPublisher{conn: conn, exchange: exchange, log: logger.OrNop(log)}
	if err := p.openChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// FromConfig returns an AMQP publisher when a broker URL is configured and
// Noop otherwise. An unreachable broker also yields Noop.
func FromConfig(cfg config.EventsConfig, log *logger.Logger) Publisher {
	log = logger.OrNop(log)
	if cfg.RabbitMQURL == "" {
		return Noop{}
	}
	p, err := DialAMQP(cfg.RabbitMQURL, cfg.Exchange, log)
	if err != nil {
		log.Warn("event publishing disabled", "error", err)
		return Noop{}
	}
	return p
}

func (p *AMQPPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	p.ch = ch
	return nil
}

// Publish sends payload as JSON with topic as the routing key
func (p *AMQPPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if err := p.openChannel(); err != nil {
			return err
		}
	}
	err = p.ch.Publish(
		p.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		_ = p.ch.Close()
		p.ch = nil
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	p.log.Debug("event published", "topic", topic, "bytes", len(body))
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	return p.conn.Close()
}
