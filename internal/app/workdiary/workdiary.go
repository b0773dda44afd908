// Package workdiary собирает HTTP-приложение дневника: хранилище, кэш, сервисы и маршруты.
package workdiary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/work-diary/internal/cache"
	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/http/middlewarectx"
	"github.com/magabrotheeeer/work-diary/internal/lib/jwt"
	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/migrations"
	"github.com/magabrotheeeer/work-diary/internal/models"
	authservice "github.com/magabrotheeeer/work-diary/internal/services/auth"
	diaryservice "github.com/magabrotheeeer/work-diary/internal/services/diary"
	subservice "github.com/magabrotheeeer/work-diary/internal/services/subscription"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

const sessionHookTimeout = 5 * time.Second

// App HTTP-приложение дневника.
type App struct {
	server      *http.Server
	logger      *slog.Logger
	db          *repository.Storage
	cache       *cache.Cache
	unsubscribe func()
}

// Ensurer создаёт запись подписки при первом обращении пользователя.
type Ensurer interface {
	Ensure(ctx context.Context, userID string) (*models.Subscription, error)
}

// SessionHook возвращает обработчик изменений сессии: при входе заводит пробный период,
// при выходе только считает событие. Ошибки логируются и не прерывают вход.
func SessionHook(logger *slog.Logger, subs Ensurer) func(*models.UserRef) {
	return func(user *models.UserRef) {
		if user == nil {
			metrics.RecordSessionEvent("sign_out")
			return
		}
		metrics.RecordSessionEvent("sign_in")

		ctx, cancel := context.WithTimeout(context.Background(), sessionHookTimeout)
		defer cancel()
		if _, err := subs.Ensure(ctx, user.ID); err != nil {
			logger.Error("failed to ensure subscription on sign in",
				slog.String("user_id", user.ID),
				sl.Err(err),
			)
		}
	}
}

// New создаёт приложение и все его зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, cacheRedis, jwtMaker, logger)
	subscriptionService := subservice.NewSubscriptionService(db, cacheRedis, logger, cfg.TrialPeriod, cfg.CacheTTL)
	diaryService := diaryservice.NewDiaryService(db, cacheRedis, logger, cfg.Location(), cfg.CacheTTL)

	unsubscribe := authService.OnChange(SessionHook(logger, subscriptionService))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Diary:        diaryService,
		DB:           db,
		Limiter:      middlewarectx.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		PaymentInfo:  cfg.PaymentInfo,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:      srv,
		logger:      logger,
		db:          db,
		cache:       cacheRedis,
		unsubscribe: unsubscribe,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его после отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	a.unsubscribe()
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
