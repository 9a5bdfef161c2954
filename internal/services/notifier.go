package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/events"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
)

// EmailSender отправляет письма воркера нотификаций.
type EmailSender interface {
	SendCommissionAccrued(email, amount string, level int) error
	SendSubscriptionActivated(email string, endsAt time.Time) error
}

// NotifierService превращает доменные события из очереди в письма
// пользователям. Получатель определяется по идентификатору из события.
type NotifierService struct {
	users  AuthUserRepository
	sender EmailSender
	log    *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(users AuthUserRepository, sender EmailSender, log *slog.Logger) *NotifierService {
	return &NotifierService{
		users:  users,
		sender: sender,
		log:    log,
	}
}

// HandleCommissionAccrued обрабатывает событие начисления комиссии.
func (s *NotifierService) HandleCommissionAccrued(body []byte) error {
	const op = "services.NotifierService.HandleCommissionAccrued"

	var event events.CommissionAccrued
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal commission event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUser(context.Background(), event.BeneficiaryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sender.SendCommissionAccrued(user.Email, event.Amount, event.Level); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("commission notification sent",
		slog.String("beneficiary", event.BeneficiaryID),
		slog.Int("level", event.Level))
	return nil
}

// HandleSubscriptionCreated обрабатывает событие активации подписки.
func (s *NotifierService) HandleSubscriptionCreated(body []byte) error {
	const op = "services.NotifierService.HandleSubscriptionCreated"

	var event events.SubscriptionCreated
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal subscription event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUser(context.Background(), event.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sender.SendSubscriptionActivated(user.Email, event.EndsAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription notification sent", slog.String("user", event.UserID))
	return nil
}
