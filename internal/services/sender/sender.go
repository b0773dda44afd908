// Package services содержит отправку писем об окончании пробного периода.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/lib/smtp"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// SenderService формирует и отправляет письма по сообщениям из очереди.
type SenderService struct {
	transport smtp.TransportInterface
	payment   config.PaymentInfo
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, payment config.PaymentInfo, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		payment:   payment,
		log:       log,
	}
}

// SendTrialNotice обрабатывает сообщение models.TrialNotice из очереди и отправляет письмо.
func (s *SenderService) SendTrialNotice(body []byte) error {
	const op = "services.sender.SendTrialNotice"

	var notice models.TrialNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if notice.Email == "" {
		return fmt.Errorf("%s: message without recipient", op)
	}

	subject, text := s.compose(notice)
	err := s.sendEmail([]string{notice.Email}, subject, text)
	metrics.RecordNotification("send", string(notice.Kind), err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SenderService) compose(n models.TrialNotice) (subject, text string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, %s!\n\n", n.DisplayName)

	switch n.Kind {
	case models.TrialEndsToday:
		subject = "Your Work Diary trial ends today"
		fmt.Fprintf(&b, "Your free trial ends today (%s). After that the diary is read-only until you subscribe.\n",
			n.TrialEndDate.Format("2006-01-02 15:04 MST"))
	default:
		subject = "Your Work Diary trial ends tomorrow"
		fmt.Fprintf(&b, "Your free trial ends tomorrow (%s).\n", n.TrialEndDate.Format("2006-01-02 15:04 MST"))
	}

	b.WriteString("\nTo keep using Work Diary, pay by one of the options below.\n")
	if s.payment.Price != "" {
		fmt.Fprintf(&b, "Price: %s %s per month", s.payment.Price, s.payment.Currency)
		if s.payment.PriceNote != "" {
			fmt.Fprintf(&b, " (%s)", s.payment.PriceNote)
		}
		b.WriteString("\n")
	}
	if s.payment.PayPalLink != "" {
		fmt.Fprintf(&b, "\nPayPal: %s\n", s.payment.PayPalLink)
	}
	if s.payment.IBAN != "" {
		fmt.Fprintf(&b, "\nBank transfer\nAccount holder: %s\nIBAN: %s\nBank: %s\n",
			s.payment.AccountHolder, s.payment.IBAN, s.payment.BankName)
	}
	if len(s.payment.Instructions) > 0 {
		b.WriteString("\nAfter payment:\n")
		for i, step := range s.payment.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	return subject, b.String()
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ","),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
