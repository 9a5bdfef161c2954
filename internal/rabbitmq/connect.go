// Package rabbitmq подключает воркеры-потребители к обменнику
// доменных событий платформы.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/events"
)

// QueueConfig связывает очередь с ключом маршрутизации обменника.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Имена очередей воркера нотификаций.
const (
	QueueCommissionAccrued   = "notifications.commission"
	QueueSubscriptionCreated = "notifications.subscription"
)

// GetNotificationQueues возвращает очереди, которые слушает воркер
// нотификаций.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueCommissionAccrued, RoutingKey: events.RoutingCommissionAccrued},
		{QueueName: QueueSubscriptionCreated, RoutingKey: events.RoutingSubscriptionCreate},
	}
}

// Connect подключается к RabbitMQ с повторами.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
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

// SetupChannel открывает канал, объявляет обменник событий и
// привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		events.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			events.Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
