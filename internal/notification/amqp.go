package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ExchangeName = "reservations"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes reservation events to a durable topic exchange, routed by event type.
type AMQPPublisher struct {
	conn        *amqp.Connection
	openChannel func() (amqpChannel, error)
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn: conn,
		openChannel: func() (amqpChannel, error) {
			return conn.Channel()
		},
	}, nil
}

// Emit opens a channel per event; channels are not safe for concurrent use.
func (p *AMQPPublisher) Emit(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s:%s", event.Type, event.ReservationID),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = ch.PublishWithContext(ctx, ExchangeName, string(event.Type), false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}

	return p.conn.Close()
}
