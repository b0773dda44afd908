// Package aggregate реализует HTTP-обработчик месячного агрегата.
package aggregate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/work-diary/internal/http/middlewarectx"
	"github.com/magabrotheeeer/work-diary/internal/http/response"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// Service описывает подсчёт месячного агрегата.
type Service interface {
	MonthlyAggregate(ctx context.Context, userID, month string) (models.MonthlyAggregate, error)
}

// Handler обрабатывает запрос месячного агрегата.
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
// @Summary Рабочие и выходные дни за месяц
// @Tags Diary
// @Produce  json
// @Security BearerAuth
// @Param month path string true "Месяц YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /diary/months/{month}/aggregate [get]
// @Router /diary/month/aggregate [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.diary.aggregate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	agg, err := h.service.MonthlyAggregate(r.Context(), user.ID, chi.URLParam(r, "month"))
	if err != nil {
		log.Error("failed to aggregate month", sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(agg))
}
