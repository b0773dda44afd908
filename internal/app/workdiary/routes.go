package workdiary

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/diary/aggregate"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/diary/getday"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/diary/history"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/diary/monthdays"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/diary/setday"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/health"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/subscription/paymentinfo"
	"github.com/magabrotheeeer/work-diary/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/work-diary/internal/http/middlewarectx"
	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	authservice "github.com/magabrotheeeer/work-diary/internal/services/auth"
	diaryservice "github.com/magabrotheeeer/work-diary/internal/services/diary"
	subservice "github.com/magabrotheeeer/work-diary/internal/services/subscription"
)

// Services зависимости, которые нужны маршрутам.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Diary        *diaryservice.DiaryService
	DB           health.Pinger
	Limiter      *middlewarectx.RateLimiter
	PaymentInfo  config.PaymentInfo
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, s.DB).ServeHTTP)

		// Только JWT аутентификация
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Post("/logout", logout.New(logger, s.Auth).ServeHTTP)
			r.Get("/subscription", status.New(logger, s.Subscription).ServeHTTP)
			r.Get("/subscription/payment-info", paymentinfo.New(s.PaymentInfo).ServeHTTP)
		})

		// Дневник доступен только с действующей подпиской
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))
			r.Use(middlewarectx.SubscriptionGateMiddleware(logger, s.Subscription))

			setDay := setday.New(logger, s.Diary)
			getDay := getday.New(logger, s.Diary)
			monthAggregate := aggregate.New(logger, s.Diary)
			monthDays := monthdays.New(logger, s.Diary)

			// без даты или месяца берётся сегодняшний день в часовом поясе сервера
			r.Put("/diary/today", setDay.ServeHTTP)
			r.Get("/diary/today", getDay.ServeHTTP)
			r.Get("/diary/month/aggregate", monthAggregate.ServeHTTP)
			r.Get("/diary/month/days", monthDays.ServeHTTP)

			r.Put("/diary/days/{date}", setDay.ServeHTTP)
			r.Get("/diary/days/{date}", getDay.ServeHTTP)
			r.Get("/diary/months/{month}/aggregate", monthAggregate.ServeHTTP)
			r.Get("/diary/months/{month}/days", monthDays.ServeHTTP)
			r.Get("/diary/history", history.New(logger, s.Diary).ServeHTTP)
		})
	})

	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
