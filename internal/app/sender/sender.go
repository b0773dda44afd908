// Package sender собирает приложение, отправляющее письма из очереди уведомлений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/work-diary/internal/services/sender"
)

const (
	trialQueue = "notification.trial"
	workers    = 4
)

// App приложение отправки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, cfg.PaymentInfo, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("consuming notifications", slog.String("queue", trialQueue))
	err := rabbitmq.ConsumeMessages(ctx, a.ch, trialQueue, workers, a.logger, a.senderService.SendTrialNotice)
	if err != nil {
		a.logger.Error("failed to consume notifications", slog.String("queue", trialQueue), sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")

	if closeErr := a.ch.Close(); closeErr != nil {
		a.logger.Error("failed to close channel", sl.Err(closeErr))
	}
	if closeErr := a.conn.Close(); closeErr != nil {
		a.logger.Error("failed to close connection", sl.Err(closeErr))
	}
	return err
}
