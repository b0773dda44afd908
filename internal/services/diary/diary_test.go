package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/work-diary/internal/cache"
	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/models"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

// memRepo хранит записи в памяти с тем же ключом, что и таблица work_diary.
type memRepo struct {
	mu      sync.Mutex
	records map[string]models.DailyRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]models.DailyRecord)}
}

func (r *memRepo) UpsertDay(_ context.Context, rec models.DailyRecord) (*models.DailyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Key()] = rec
	return &rec, nil
}

func (r *memRepo) GetDay(_ context.Context, userID, date string) (*models.DailyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[models.DiaryKey(userID, date)]
	if !ok {
		return nil, fmt.Errorf("storage.GetDay: %w", repository.ErrNotFound)
	}
	return &rec, nil
}

func (r *memRepo) ListMonth(_ context.Context, userID, m string) ([]models.DailyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]models.DailyRecord, 0)
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Month == m {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	return result, nil
}

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpsertDay(ctx context.Context, rec models.DailyRecord) (*models.DailyRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyRecord), args.Error(1)
}

func (m *RepoMock) GetDay(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyRecord), args.Error(1)
}

func (m *RepoMock) ListMonth(ctx context.Context, userID, month string) ([]models.DailyRecord, error) {
	args := m.Called(ctx, userID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyRecord), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

var fixedNow = time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func newTestService(t *testing.T, repo DiaryRepository, loc *time.Location) *DiaryService {
	t.Helper()
	c, _ := newRedisCache(t)
	s := NewDiaryService(repo, c, newNoopLogger(), loc, time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSetDayStatus_SetThenGet(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)
	ctx := context.Background()

	rec, err := s.SetDayStatus(ctx, "u1", "2024-03-15", models.DayWork)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", rec.Month)
	assert.Equal(t, rec.Date[:7], rec.Month)
	assert.Equal(t, fixedNow, rec.Timestamp)

	status, found, err := s.GetDayStatus(ctx, "u1", "2024-03-15")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.DayWork, status)
}

func TestSetDayStatus_OverwriteKeepsSingleRecord(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(t, repo, time.UTC)
	ctx := context.Background()

	_, err := s.SetDayStatus(ctx, "u1", "2024-03-15", models.DayWork)
	require.NoError(t, err)
	_, err = s.SetDayStatus(ctx, "u1", "2024-03-15", models.DayHoliday)
	require.NoError(t, err)

	status, found, err := s.GetDayStatus(ctx, "u1", "2024-03-15")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.DayHoliday, status)
	assert.Len(t, repo.records, 1)
}

func TestSetDayStatus_EmptyDateUsesConfiguredZone(t *testing.T) {
	istanbul := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name     string
		loc      *time.Location
		wantDate string
	}{
		{name: "utc", loc: time.UTC, wantDate: "2024-03-15"},
		{name: "ahead of utc", loc: istanbul, wantDate: "2024-03-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, newMemRepo(), tt.loc)

			rec, err := s.SetDayStatus(context.Background(), "u1", "", models.DayWork)

			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, rec.Date)
			assert.Equal(t, tt.wantDate[:7], rec.Month)
		})
	}
}

func TestSetDayStatus_Validation(t *testing.T) {
	repo := new(RepoMock)
	s := newTestService(t, repo, time.UTC)

	_, err := s.SetDayStatus(context.Background(), "u1", "2024-03-15", "vacation")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	_, err = s.SetDayStatus(context.Background(), "u1", "15-03-2024", models.DayWork)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	repo.AssertNotCalled(t, "UpsertDay", mock.Anything, mock.Anything)
}

func TestSetDayStatus_WriteFailureLeavesCache(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	s := NewDiaryService(repo, c, newNoopLogger(), time.UTC, time.Hour)
	s.now = func() time.Time { return fixedNow }

	repo.On("UpsertDay", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	_, err := s.SetDayStatus(context.Background(), "u1", "2024-03-15", models.DayWork)

	assert.ErrorIs(t, err, models.ErrPersistenceFailed)
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestSetDayStatus_InvalidatesMonthAggregate(t *testing.T) {
	repo := newMemRepo()
	c, mr := newRedisCache(t)
	s := NewDiaryService(repo, c, newNoopLogger(), time.UTC, time.Hour)
	s.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := s.SetDayStatus(ctx, "u1", "2024-03-01", models.DayWork)
	require.NoError(t, err)

	agg, err := s.MonthlyAggregate(ctx, "u1", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.WorkDays)
	assert.True(t, mr.Exists("diary:aggregate:u1:2024-03"))

	_, err = s.SetDayStatus(ctx, "u1", "2024-03-02", models.DayHoliday)
	require.NoError(t, err)
	assert.False(t, mr.Exists("diary:aggregate:u1:2024-03"))

	agg, err = s.MonthlyAggregate(ctx, "u1", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.WorkDays)
	assert.Equal(t, 1, agg.Holidays)
}

func TestGetDayStatus_Absent(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)

	status, found, err := s.GetDayStatus(context.Background(), "u1", "2024-03-15")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, status)
}

func TestGetDayStatus_StoreFailure(t *testing.T) {
	repo := new(RepoMock)
	s := newTestService(t, repo, time.UTC)
	repo.On("GetDay", mock.Anything, "u1", "2024-03-15").Return(nil, errors.New("connection reset")).Once()

	_, _, err := s.GetDayStatus(context.Background(), "u1", "2024-03-15")

	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestMonthlyAggregate(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(t, repo, time.UTC)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-03-04", "2024-03-05"} {
		_, err := s.SetDayStatus(ctx, "u1", d, models.DayWork)
		require.NoError(t, err)
	}
	for _, d := range []string{"2024-03-02", "2024-03-03"} {
		_, err := s.SetDayStatus(ctx, "u1", d, models.DayHoliday)
		require.NoError(t, err)
	}
	_, err := s.SetDayStatus(ctx, "u2", "2024-03-01", models.DayWork)
	require.NoError(t, err)

	agg, err := s.MonthlyAggregate(ctx, "u1", "2024-03")

	require.NoError(t, err)
	assert.Equal(t, models.MonthlyAggregate{Month: "2024-03", WorkDays: 3, Holidays: 2, WorkPercentage: 60}, agg)
}

func TestMonthlyAggregate_EmptyMonth(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)

	agg, err := s.MonthlyAggregate(context.Background(), "u1", "2023-01")

	require.NoError(t, err)
	assert.Equal(t, 0, agg.WorkDays)
	assert.Equal(t, 0, agg.Holidays)
	assert.Equal(t, 0, agg.WorkPercentage)
}

func TestMonthlyAggregate_DefaultsToCurrentMonth(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(t, repo, time.UTC)
	ctx := context.Background()

	_, err := s.SetDayStatus(ctx, "u1", "", models.DayWork)
	require.NoError(t, err)

	agg, err := s.MonthlyAggregate(ctx, "u1", "")

	require.NoError(t, err)
	assert.Equal(t, s.Today()[:7], agg.Month)
	assert.Equal(t, 1, agg.WorkDays)
}

func TestMonthlyAggregate_Errors(t *testing.T) {
	repo := new(RepoMock)
	s := newTestService(t, repo, time.UTC)

	_, err := s.MonthlyAggregate(context.Background(), "u1", "March")
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	repo.On("ListMonth", mock.Anything, "u1", "2024-03").Return(nil, errors.New("unavailable")).Once()
	_, err = s.MonthlyAggregate(context.Background(), "u1", "2024-03")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestAggregate_IgnoresUnknownStatusAndOtherMonths(t *testing.T) {
	records := []models.DailyRecord{
		{Month: "2024-03", Status: models.DayWork},
		{Month: "2024-03", Status: models.DayWork},
		{Month: "2024-03", Status: "sick"},
		{Month: "2024-03", Status: models.DayHoliday},
		{Month: "2024-04", Status: models.DayHoliday},
	}

	agg := Aggregate("2024-03", records)

	assert.Equal(t, 2, agg.WorkDays)
	assert.Equal(t, 1, agg.Holidays)
	assert.Equal(t, 67, agg.WorkPercentage)
}

func TestSixMonthHistory(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)
	ctx := context.Background()

	_, err := s.SetDayStatus(ctx, "u1", "2023-10-31", models.DayWork)
	require.NoError(t, err)
	_, err = s.SetDayStatus(ctx, "u1", "2024-03-01", models.DayHoliday)
	require.NoError(t, err)
	_, err = s.SetDayStatus(ctx, "u1", "2023-09-30", models.DayWork)
	require.NoError(t, err)

	history, err := s.SixMonthHistory(ctx, "u1", "2024-03-15")

	require.NoError(t, err)
	require.Len(t, history, HistoryMonths)
	months := make([]string, 0, len(history))
	for _, h := range history {
		months = append(months, h.Month)
		assert.Equal(t, h.WorkDays+h.Holidays, h.Total)
	}
	assert.Equal(t, []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}, months)
	assert.Equal(t, 1, history[0].WorkDays)
	assert.Equal(t, 1, history[5].Holidays)
	assert.Equal(t, 0, history[2].Total)
}

func TestSixMonthHistory_DefaultsToToday(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)

	history, err := s.SixMonthHistory(context.Background(), "u1", "")

	require.NoError(t, err)
	require.Len(t, history, HistoryMonths)
	assert.Equal(t, "2024-03", history[len(history)-1].Month)

	_, err = s.SixMonthHistory(context.Background(), "u1", "2024/03/15")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestCurrentMonthDetail_OrderedByDateDesc(t *testing.T) {
	s := newTestService(t, newMemRepo(), time.UTC)
	ctx := context.Background()

	for _, d := range []string{"2024-03-02", "2024-03-10", "2024-03-01"} {
		_, err := s.SetDayStatus(ctx, "u1", d, models.DayWork)
		require.NoError(t, err)
	}

	records, err := s.CurrentMonthDetail(ctx, "u1", "")

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-10", records[0].Date)
	assert.Equal(t, "2024-03-01", records[2].Date)
}
