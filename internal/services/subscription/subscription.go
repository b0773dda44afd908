// Package services содержит оценку подписки: создание пробного периода при первом
// обращении и решение о доступе к дневнику.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

// SubscriptionRepository определяет методы для работы с записями подписок в хранилище.
type SubscriptionRepository interface {
	// GetSubscription возвращает запись или repository.ErrNotFound.
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	// CreateSubscription сохраняет запись, если её ещё нет, и сообщает, была ли она создана.
	CreateSubscription(ctx context.Context, sub models.Subscription) (bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// SubscriptionService создаёт и оценивает записи подписок.
type SubscriptionService struct {
	repo        SubscriptionRepository
	cache       Cache
	log         *slog.Logger
	trialPeriod time.Duration
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger, trialPeriod, cacheTTL time.Duration) *SubscriptionService {
	return &SubscriptionService{
		repo:        repo,
		cache:       cache,
		log:         log,
		trialPeriod: trialPeriod,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

func cacheKey(userID string) string {
	return "subscription:" + userID
}

// Ensure возвращает запись подписки пользователя, создавая пробный период при первом обращении.
// Запись создаётся не более одного раза: при гонке побеждает первая вставка, а все вызывающие
// получают сохранённую запись. Ошибка чтения возвращается как models.ErrStoreUnavailable.
func (s *SubscriptionService) Ensure(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "services.subscription.Ensure"

	var cached models.Subscription
	found, err := s.cache.Get(ctx, cacheKey(userID), &cached)
	if err != nil {
		s.log.Warn("failed to read subscription from cache", slog.String("user_id", userID), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	rec, err := s.repo.GetSubscription(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		rec, err = s.createTrial(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		s.log.Error("failed to read subscription", slog.String("user_id", userID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}

	if err := s.cache.Set(ctx, cacheKey(userID), rec, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("user_id", userID), sl.Err(err))
	}
	return rec, nil
}

func (s *SubscriptionService) createTrial(ctx context.Context, userID string) (*models.Subscription, error) {
	now := s.now().UTC()
	trial := models.Subscription{
		UserID:       userID,
		Status:       models.SubscriptionTrial,
		TrialEndDate: now.Add(s.trialPeriod),
		CreatedAt:    now,
		IsActive:     true,
	}

	created, err := s.repo.CreateSubscription(ctx, trial)
	if err != nil {
		s.log.Error("failed to create trial subscription", slog.String("user_id", userID), sl.Err(err))
		return nil, fmt.Errorf("%w: %w", models.ErrPersistenceFailed, err)
	}
	if created {
		metrics.RecordTrialCreated()
		s.log.Info("created trial subscription",
			slog.String("user_id", userID),
			slog.Time("trial_end_date", trial.TrialEndDate))
	}

	rec, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	return rec, nil
}

// Status возвращает состояние подписки пользователя на текущий момент.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*models.SubscriptionView, error) {
	rec, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	return View(rec, s.now()), nil
}
