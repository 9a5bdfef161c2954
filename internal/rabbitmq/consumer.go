package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
)

// Число сообщений очереди, обрабатываемых одновременно.
const consumerConcurrency = 10

// ConsumerMessage подписывается на очередь и разбирает её сообщения
// переданным обработчиком. Ошибка обработчика возвращает сообщение
// в очередь. Возвращает управление сразу после подписки, разбор идет
// в фоне до отмены контекста.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string,
	handler func([]byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("queue", queueName))

	sem := make(chan struct{}, consumerConcurrency)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(delivery.Body); err != nil {
						log.Error("failed to handle message", sl.Err(err))
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
