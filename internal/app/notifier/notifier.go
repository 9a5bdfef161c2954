// Package notifier предоставляет воркер, который слушает доменные
// события платформы и рассылает письма пользователям.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/config"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/rabbitmq"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/services"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/storage/repository"
)

// Период удаления просроченных одноразовых кодов.
const otpCleanupInterval = time.Hour

// App объединяет соединение с брокером и сервис нотификаций.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	db       *repository.Storage
	notifier *services.NotifierService
	logger   *slog.Logger
}

// New собирает воркер: хранилище для адресов получателей, канал
// брокера с очередями и SMTP-транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	sender := services.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), logger)
	notifier := services.NewNotifierService(db, sender, logger)

	return &App{
		conn:     conn,
		ch:       ch,
		db:       db,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Run запускает потребителей очередей и уборку просроченных кодов,
// блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueCommissionAccrued, a.notifier.HandleCommissionAccrued, a.logger)
	if err != nil {
		a.logger.Error("failed to start commission consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueSubscriptionCreated, a.notifier.HandleSubscriptionCreated, a.logger)
	if err != nil {
		a.logger.Error("failed to start subscription consumer", slog.Any("err", err))
		return err
	}

	go a.cleanupExpiredOtps(ctx)

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}

// cleanupExpiredOtps раз в час удаляет просроченные одноразовые коды.
func (a *App) cleanupExpiredOtps(ctx context.Context) {
	ticker := time.NewTicker(otpCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := a.db.DeleteExpiredOtps(ctx)
			if err != nil {
				a.logger.Error("failed to delete expired otp codes", slog.Any("err", err))
				continue
			}
			if count > 0 {
				a.logger.Info("expired otp codes removed", slog.Int64("count", count))
			}
		}
	}
}
