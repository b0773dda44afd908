// Package services содержит логику дневника: запись отметки дня и агрегаты по месяцам.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/month"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

// HistoryMonths число месяцев в истории, включая месяц опорной даты.
const HistoryMonths = 6

// DiaryRepository определяет методы для работы с дневными отметками в хранилище.
type DiaryRepository interface {
	UpsertDay(ctx context.Context, rec models.DailyRecord) (*models.DailyRecord, error)
	GetDay(ctx context.Context, userID, date string) (*models.DailyRecord, error)
	ListMonth(ctx context.Context, userID, month string) ([]models.DailyRecord, error)
}

// Cache описывает методы для кэширования агрегатов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// DiaryService реализует запись отметок и подсчёт агрегатов с кешированием.
type DiaryService struct {
	repo     DiaryRepository
	cache    Cache
	log      *slog.Logger
	loc      *time.Location
	cacheTTL time.Duration
	now      func() time.Time
}

// NewDiaryService создает новый экземпляр DiaryService.
// Пустая дата в запросах понимается как текущий день в часовом поясе loc.
func NewDiaryService(repo DiaryRepository, cache Cache, log *slog.Logger, loc *time.Location, cacheTTL time.Duration) *DiaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &DiaryService{
		repo:     repo,
		cache:    cache,
		log:      log,
		loc:      loc,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func aggregateKey(userID, m string) string {
	return fmt.Sprintf("diary:aggregate:%s:%s", userID, m)
}

// Today возвращает текущую дату в часовом поясе сервиса.
func (s *DiaryService) Today() string {
	return month.Today(s.now(), s.loc)
}

// SetDayStatus записывает отметку дня. Повторная запись того же дня перезаписывает статус.
// Пустая date означает сегодняшний день.
func (s *DiaryService) SetDayStatus(ctx context.Context, userID, date string, status models.DayStatus) (*models.DailyRecord, error) {
	const op = "services.diary.SetDayStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}
	if date == "" {
		date = s.Today()
	}
	m, err := month.FromDate(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidDate, err)
	}

	rec := models.DailyRecord{
		UserID:    userID,
		Date:      date,
		Month:     m,
		Status:    status,
		Timestamp: s.now().UTC(),
	}
	saved, err := s.repo.UpsertDay(ctx, rec)
	if err != nil {
		s.log.Error("failed to save day status",
			slog.String("user_id", userID), slog.String("date", date), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrPersistenceFailed, err)
	}

	if err := s.cache.Invalidate(ctx, aggregateKey(userID, m)); err != nil {
		s.log.Warn("failed to invalidate aggregate cache", slog.String("key", aggregateKey(userID, m)), sl.Err(err))
	}
	metrics.RecordDayWrite(string(status))
	s.log.Info("day status saved",
		slog.String("user_id", userID), slog.String("date", date), slog.String("status", string(status)))

	return saved, nil
}

// GetDayStatus возвращает отметку дня. Если отметки нет, found равен false, а ошибки нет.
func (s *DiaryService) GetDayStatus(ctx context.Context, userID, date string) (status models.DayStatus, found bool, err error) {
	const op = "services.diary.GetDayStatus"

	if date == "" {
		date = s.Today()
	}
	if _, err := month.FromDate(date); err != nil {
		return "", false, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidDate, err)
	}

	rec, err := s.repo.GetDay(ctx, userID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
	return rec.Status, true, nil
}

// MonthlyAggregate считает рабочие и выходные дни за месяц. Месяц без отметок даёт нули без ошибки,
// пустой m означает текущий месяц.
func (s *DiaryService) MonthlyAggregate(ctx context.Context, userID, m string) (models.MonthlyAggregate, error) {
	const op = "services.diary.MonthlyAggregate"

	if m == "" {
		m = s.Today()[:7]
	}
	if err := month.Validate(m); err != nil {
		return models.MonthlyAggregate{}, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidDate, err)
	}

	key := aggregateKey(userID, m)
	var cached models.MonthlyAggregate
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read aggregate from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	records, err := s.repo.ListMonth(ctx, userID, m)
	if err != nil {
		return models.MonthlyAggregate{}, fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
	agg := Aggregate(m, records)

	if err := s.cache.Set(ctx, key, agg, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache aggregate", slog.String("key", key), sl.Err(err))
	}
	return agg, nil
}

// SixMonthHistory возвращает сводку за шесть календарных месяцев, заканчивающихся месяцем
// referenceDate, от старого к новому. Пустая referenceDate означает сегодняшний день.
func (s *DiaryService) SixMonthHistory(ctx context.Context, userID, referenceDate string) ([]models.MonthSummary, error) {
	const op = "services.diary.SixMonthHistory"

	if referenceDate == "" {
		referenceDate = s.Today()
	}
	ref, err := time.Parse(month.DateLayout, referenceDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidDate, err)
	}

	months := month.LastMonths(ref, HistoryMonths)
	history := make([]models.MonthSummary, 0, len(months))
	for _, m := range months {
		agg, err := s.MonthlyAggregate(ctx, userID, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		history = append(history, models.MonthSummary{
			Month:    m,
			WorkDays: agg.WorkDays,
			Holidays: agg.Holidays,
			Total:    agg.Total(),
		})
	}
	return history, nil
}

// CurrentMonthDetail возвращает отметки за месяц от последнего дня к первому.
// Пустой месяц означает текущий.
func (s *DiaryService) CurrentMonthDetail(ctx context.Context, userID, m string) ([]models.DailyRecord, error) {
	const op = "services.diary.CurrentMonthDetail"

	if m == "" {
		m = s.Today()[:7]
	}
	if err := month.Validate(m); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidDate, err)
	}

	records, err := s.repo.ListMonth(ctx, userID, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
	return records, nil
}

// Aggregate подсчитывает агрегат по записям месяца m. Записи других месяцев
// и неизвестные статусы не учитываются.
func Aggregate(m string, records []models.DailyRecord) models.MonthlyAggregate {
	agg := models.MonthlyAggregate{Month: m}
	for _, rec := range records {
		if rec.Month != m {
			continue
		}
		switch rec.Status {
		case models.DayWork:
			agg.WorkDays++
		case models.DayHoliday:
			agg.Holidays++
		}
	}
	if total := agg.Total(); total > 0 {
		agg.WorkPercentage = int(math.Round(float64(agg.WorkDays) * 100 / float64(total)))
	}
	return agg
}
