package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/work-diary/internal/models"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	args := m.Called(ctx, sub)
	return args.Bool(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(r *RepoMock, c *CacheMock) *SubscriptionService {
	s := NewSubscriptionService(r, c, newNoopLogger(), 7*24*time.Hour, time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s
}

func notFound() error {
	return fmt.Errorf("storage.GetSubscription: %w", repository.ErrNotFound)
}

func TestEnsure_CreatesTrialForNewUser(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	expected := models.Subscription{
		UserID:       "u1",
		Status:       models.SubscriptionTrial,
		TrialEndDate: fixedNow.Add(7 * 24 * time.Hour),
		CreatedAt:    fixedNow,
		IsActive:     true,
	}

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(nil, notFound()).Once()
	r.On("CreateSubscription", mock.Anything, expected).Return(true, nil).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(&expected, nil).Once()
	c.On("Set", mock.Anything, "subscription:u1", &expected, time.Hour).Return(nil).Once()

	got, err := newTestService(r, c).Ensure(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, &expected, got)
	r.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestEnsure_ConcurrentCreateReturnsPersisted(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	persisted := &models.Subscription{
		UserID:       "u1",
		Status:       models.SubscriptionTrial,
		TrialEndDate: fixedNow.Add(time.Hour),
		CreatedAt:    fixedNow.Add(-7 * 24 * time.Hour),
		IsActive:     true,
	}

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil)
	r.On("GetSubscription", mock.Anything, "u1").Return(nil, notFound()).Once()
	r.On("CreateSubscription", mock.Anything, mock.Anything).Return(false, nil).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(persisted, nil).Once()
	c.On("Set", mock.Anything, "subscription:u1", persisted, time.Hour).Return(nil)

	got, err := newTestService(r, c).Ensure(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, persisted, got)
	r.AssertExpectations(t)
}

func TestEnsure_Idempotent(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	existing := &models.Subscription{UserID: "u1", Status: models.SubscriptionTrial, TrialEndDate: fixedNow.Add(time.Hour)}

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil)
	r.On("GetSubscription", mock.Anything, "u1").Return(existing, nil).Twice()
	c.On("Set", mock.Anything, "subscription:u1", existing, time.Hour).Return(nil)

	s := newTestService(r, c)
	first, err := s.Ensure(context.Background(), "u1")
	require.NoError(t, err)
	second, err := s.Ensure(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	r.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestEnsure_CacheHitSkipsStore(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*models.Subscription)
			*out = models.Subscription{UserID: "u1", Status: models.SubscriptionActive}
		}).
		Return(true, nil).Once()

	got, err := newTestService(r, c).Ensure(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.Status)
	r.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestEnsure_CacheErrorsDoNotChangeDecision(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	existing := &models.Subscription{UserID: "u1", Status: models.SubscriptionActive}

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, errors.New("redis down")).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(existing, nil).Once()
	c.On("Set", mock.Anything, "subscription:u1", existing, time.Hour).Return(errors.New("redis down")).Once()

	got, err := newTestService(r, c).Ensure(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestEnsure_ReadFailureIsStoreUnavailable(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(nil, errors.New("connection refused")).Once()

	got, err := newTestService(r, c).Ensure(context.Background(), "u1")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	r.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestEnsure_CreateFailureIsPersistenceFailed(t *testing.T) {
	r := new(RepoMock)
	c := new(CacheMock)

	c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil).Once()
	r.On("GetSubscription", mock.Anything, "u1").Return(nil, notFound()).Once()
	r.On("CreateSubscription", mock.Anything, mock.Anything).Return(false, errors.New("disk full")).Once()

	_, err := newTestService(r, c).Ensure(context.Background(), "u1")

	assert.ErrorIs(t, err, models.ErrPersistenceFailed)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		rec        *models.Subscription
		wantState  models.SubscriptionState
		wantActive bool
		wantDays   int
	}{
		{
			name:       "fresh trial",
			rec:        &models.Subscription{UserID: "u1", Status: models.SubscriptionTrial, TrialEndDate: fixedNow.Add(7 * 24 * time.Hour)},
			wantState:  models.StateTrial,
			wantActive: true,
			wantDays:   7,
		},
		{
			name:      "expired trial",
			rec:       &models.Subscription{UserID: "u1", Status: models.SubscriptionTrial, TrialEndDate: fixedNow.Add(-time.Second)},
			wantState: models.StateExpired,
		},
		{
			name:       "paid",
			rec:        &models.Subscription{UserID: "u1", Status: models.SubscriptionActive},
			wantState:  models.StateActive,
			wantActive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(RepoMock)
			c := new(CacheMock)
			c.On("Get", mock.Anything, "subscription:u1", mock.Anything).Return(false, nil).Once()
			r.On("GetSubscription", mock.Anything, "u1").Return(tt.rec, nil).Once()
			c.On("Set", mock.Anything, "subscription:u1", tt.rec, time.Hour).Return(nil).Once()

			v, err := newTestService(r, c).Status(context.Background(), "u1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantState, v.State)
			assert.Equal(t, tt.wantActive, v.IsActive)
			assert.Equal(t, tt.wantDays, v.DaysRemaining)
		})
	}
}
