// Package services содержит планировщик уведомлений об окончании пробного периода.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// TrialRepository находит пробные периоды, заканчивающиеся в интервале.
type TrialRepository interface {
	FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialNotice, error)
}

// Publisher публикует сообщение с ключом маршрутизации.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// SentNotices помнит уже опубликованные уведомления.
type SentNotices interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// noticeTTL покрывает оба окна уведомлений с запасом.
const noticeTTL = 72 * time.Hour

func noticeKey(n models.TrialNotice) string {
	return "notice:" + n.UserID + ":" + string(n.Kind)
}

// SchedulerService периодически публикует уведомления об окончании пробного периода.
type SchedulerService struct {
	repo      TrialRepository
	publisher Publisher
	sent      SentNotices
	log       *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// Границы «сегодня» и «завтра» считаются в часовом поясе loc.
// Каждое уведомление публикуется не больше одного раза на пользователя и вид.
func NewSchedulerService(repo TrialRepository, publisher Publisher, sent SentNotices, log *slog.Logger, loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		sent:      sent,
		log:       log,
		loc:       loc,
		now:       time.Now,
	}
}

// Run выполняет проверку сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.runOnceLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnceLogged(ctx)
		}
	}
}

func (s *SchedulerService) runOnceLogged(ctx context.Context) {
	published, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("trial notice run failed", sl.Err(err))
		return
	}
	s.log.Info("trial notice run finished", slog.Int("published", published))
}

// RunOnce публикует уведомления для пробных периодов, заканчивающихся сегодня и завтра.
// Ошибка публикации одного сообщения не прерывает остальные.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	const op = "services.scheduler.RunOnce"

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	windows := []struct {
		from, to time.Time
		kind     models.TrialNoticeKind
	}{
		{from: today, to: tomorrow, kind: models.TrialEndsToday},
		{from: tomorrow, to: dayAfter, kind: models.TrialEndsTomorrow},
	}

	published := 0
	for _, w := range windows {
		notices, err := s.repo.FindTrialsEndingBetween(ctx, w.from, w.to)
		if err != nil {
			return published, fmt.Errorf("%s: %w", op, err)
		}
		if len(notices) == 0 {
			continue
		}
		s.log.Info("found ending trials", slog.String("kind", string(w.kind)), slog.Int("count", len(notices)))

		for _, n := range notices {
			n.Kind = w.kind
			if !s.claim(ctx, n) {
				continue
			}
			err = s.publisher.Publish(rabbitmq.RoutingTrial, n)
			metrics.RecordNotification("publish", string(w.kind), err)
			if err != nil {
				s.log.Error("failed to publish trial notice", slog.String("user_id", n.UserID), sl.Err(err))
				s.release(ctx, n)
				continue
			}
			published++
		}
	}
	return published, nil
}

// claim отмечает уведомление как отправленное. Если отметка уже есть, возвращает false.
// При недоступном хранилище отметок уведомление всё равно публикуется.
func (s *SchedulerService) claim(ctx context.Context, n models.TrialNotice) bool {
	ok, err := s.sent.SetNX(ctx, noticeKey(n), n.TrialEndDate, noticeTTL)
	if err != nil {
		s.log.Warn("failed to mark trial notice", slog.String("user_id", n.UserID), sl.Err(err))
		return true
	}
	if !ok {
		s.log.Debug("trial notice already sent", slog.String("user_id", n.UserID), slog.String("kind", string(n.Kind)))
	}
	return ok
}

// release снимает отметку, чтобы следующий запуск повторил публикацию.
func (s *SchedulerService) release(ctx context.Context, n models.TrialNotice) {
	if err := s.sent.Invalidate(ctx, noticeKey(n)); err != nil {
		s.log.Warn("failed to unmark trial notice", slog.String("user_id", n.UserID), sl.Err(err))
	}
}
