// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"vietlingo/logger"
)

const (
	PointsAdded     = "experience.points_added"
	LevelUp         = "experience.level_up"
	StreakUpdated   = "experience.streak_updated"
	LessonCompleted = "progress.lesson_completed"
	TopicUnlocked   = "progress.topic_unlocked"
	LearnerCreated  = "auth.registered"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "vietlingo.events"

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

// Envelope is the JSON body of every published message.
type Envelope struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher dials url and declares a durable topic exchange. An empty url disables
// publishing and returns a Nop publisher.
func NewPublisher(url, exchange string) (Publisher, error) {
	if url == "" {
		logger.Log.Info("RABBITMQ_URL not set, event publishing disabled")
		return Nop{}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends payload with eventType as the routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(Envelope{Type: eventType, Payload: payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }

// Emit publishes and logs failures instead of returning them. Events never fail a request.
func Emit(ctx context.Context, p Publisher, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, payload); err != nil {
		logger.Log.Warn("publish event failed", zap.String("event", eventType), zap.Error(err))
	}
}
