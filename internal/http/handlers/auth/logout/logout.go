// Package logout реализует HTTP-обработчик выхода: текущий токен отзывается.
package logout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/work-diary/internal/http/middlewarectx"
	"github.com/magabrotheeeer/work-diary/internal/http/response"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// Service описывает выход пользователя.
type Service interface {
	SignOut(ctx context.Context, token string) error
}

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := middlewarectx.TokenFromContext(r.Context())
	err := h.service.SignOut(r.Context(), token)
	if errors.Is(err, models.ErrStoreUnavailable) {
		log.Error("failed to revoke token", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("service temporarily unavailable"))
		return
	}
	if err != nil {
		log.Warn("logout rejected", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"signed_out": true}))
}
