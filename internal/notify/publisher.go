// Package notify доставляет уведомления гостям через брокер сообщений.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName = "hotel"
	ExchangeKind = "topic"
	RoutingKey   = "guest.notification"
)

// Message описывает уведомление гостю в том виде, в каком оно уходит в брокер.
type Message struct {
	GuestID  int64             `json:"guest_id"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	SentAt   time.Time         `json:"sent_at"`
}

// AMQPPublisher публикует уведомления в topic-exchange RabbitMQ.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish отправляет уведомление с ключом маршрутизации guest.notification.
func (p *AMQPPublisher) Publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := p.channel.PublishWithContext(
		ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    m.SentAt,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher пишет уведомления в лог. Используется, когда брокер не настроен.
type LogPublisher struct {
	Logger *zap.Logger
}

// Publish записывает уведомление в лог.
func (p LogPublisher) Publish(ctx context.Context, m Message) error {
	p.Logger.Info("guest notification",
		zap.Int64("guestID", m.GuestID),
		zap.String("message", m.Message),
		zap.Any("metadata", m.Metadata),
	)
	return nil
}
