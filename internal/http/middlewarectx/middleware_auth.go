// Package middlewarectx содержит HTTP middleware дневника: проверку JWT, проверку
// подписки и ограничение частоты запросов. Данные пользователя передаются дальше
// через контекст запроса.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/work-diary/internal/http/response"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User ключ для *models.UserRef в контексте.
	User Key = "user"
	// Token ключ для исходного JWT в контексте, нужен для выхода.
	Token Key = "token"
)

// TokenValidator описывает сервис проверки JWT.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*models.UserRef, error)
}

// UserFromContext возвращает пользователя, сохранённого JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.UserRef, bool) {
	user, ok := ctx.Value(User).(*models.UserRef)
	return user, ok && user != nil && user.ID != ""
}

// TokenFromContext возвращает JWT текущего запроса.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(Token).(string)
	return token
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет пользователя и токен в контекст запроса.
// Недействительный токен даёт 401, недоступное хранилище отзывов даёт 503.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := validator.Validate(r.Context(), tokenStr)
			if errors.Is(err, models.ErrStoreUnavailable) {
				log.Error("token revocation store unavailable", sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("service temporarily unavailable"))
				return
			}
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			ctx = context.WithValue(ctx, Token, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
