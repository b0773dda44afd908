package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/work-diary/internal/http/response"
	"github.com/magabrotheeeer/work-diary/internal/lib/metrics"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// SubscriptionStatusProvider определяет интерфейс для получения статуса подписки.
type SubscriptionStatusProvider interface {
	Status(ctx context.Context, userID string) (*models.SubscriptionView, error)
}

// SubscriptionGateMiddleware пропускает к дневнику только пользователей с активной подпиской
// или действующим пробным периодом. Ошибка хранилища закрывает доступ ответом 503,
// неактивная подписка даёт 402 со статусом подписки в data.
func SubscriptionGateMiddleware(log *slog.Logger, subService SubscriptionStatusProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionGateMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			view, err := subService.Status(r.Context(), user.ID)
			if err != nil {
				metrics.RecordGateDecision("unavailable")
				log.Error("failed to get subscription status", slog.String("user_id", user.ID), sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("subscription status unavailable"))
				return
			}

			if !view.IsActive {
				metrics.RecordGateDecision("denied")
				log.Info("subscription required, access denied",
					slog.String("user_id", user.ID), slog.String("state", string(view.State)))
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.ErrorWithData("subscription required", view))
				return
			}

			metrics.RecordGateDecision("allowed")
			next.ServeHTTP(w, r)
		})
	}
}
