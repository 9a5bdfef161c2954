package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/smtp"
)

// SenderService отправляет письма пользователям через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendOtpCode отправляет одноразовый код подтверждения входа.
func (s *SenderService) SendOtpCode(email, code string) error {
	subject := "Код подтверждения"
	bodyText := fmt.Sprintf("Здравствуйте!\n\nВаш код подтверждения: %s\n\nКод действует 10 минут. Если вы не запрашивали код, проигнорируйте это письмо.", code)
	return s.sendEmail([]string{email}, subject, bodyText)
}

// SendCommissionAccrued уведомляет спонсора о начисленной комиссии.
func (s *SenderService) SendCommissionAccrued(email, amount string, level int) error {
	subject := "Начислена партнёрская комиссия"
	bodyText := fmt.Sprintf("Здравствуйте!\n\nВам начислена комиссия уровня %d: %s.\n\nСумма доступна к выводу в личном кабинете.", level, amount)
	return s.sendEmail([]string{email}, subject, bodyText)
}

// SendSubscriptionActivated уведомляет пользователя об активации подписки.
func (s *SenderService) SendSubscriptionActivated(email string, endsAt time.Time) error {
	subject := "Подписка активирована"
	bodyText := fmt.Sprintf("Здравствуйте!\n\nВаша подписка активирована и действует до %s.", endsAt.Format("02.01.2006"))
	return s.sendEmail([]string{email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
