package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Publisher описывает публикацию доменного события.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// AMQPPublisher публикует события в обменник platform-events.
type AMQPPublisher struct {
	ch *amqp.Channel
}

// Connect подключается к RabbitMQ с повторами.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "events.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// NewPublisher открывает канал и объявляет обменник platform-events.
func NewPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	const op = "events.NewPublisher"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{ch: ch}, nil
}

// Publish сериализует сообщение в JSON и публикует его с заданным ключом.
func (p *AMQPPublisher) Publish(routingKey string, message any) error {
	const op = "events.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.ch.Publish(
		Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал публикации.
func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}
