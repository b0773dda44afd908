package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
)

// ConsumeMessages читает очередь queueName и вызывает handler не более чем в workers горутинах.
// Успешно обработанные сообщения подтверждаются. При ошибке сообщение один раз возвращается
// в очередь, повторная ошибка на уже доставленном сообщении отбрасывает его.
// Возвращается после отмены ctx или закрытия канала доставки, дождавшись запущенных обработчиков.
func ConsumeMessages(ctx context.Context, ch *amqp.Channel, queueName string, workers int, log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumeMessages"
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
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, workers)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// сообщение не подтверждено, брокер вернёт его в очередь при закрытии канала
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := handler(d.Body); err != nil {
					requeue := !d.Redelivered
					log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
					if nackErr := d.Nack(false, requeue); nackErr != nil {
						log.Error("failed to nack message", sl.Err(nackErr))
					}
					return
				}
				if ackErr := d.Ack(false); ackErr != nil {
					log.Error("failed to ack message", sl.Err(ackErr))
				}
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}
