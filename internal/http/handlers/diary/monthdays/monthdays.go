// Package monthdays реализует HTTP-обработчик списка отметок за месяц.
package monthdays

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

// Service описывает чтение отметок месяца.
type Service interface {
	CurrentMonthDetail(ctx context.Context, userID, month string) ([]models.DailyRecord, error)
}

// Handler обрабатывает запрос списка отметок.
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
// @Summary Отметки за месяц, от последнего дня к первому
// @Tags Diary
// @Produce  json
// @Security BearerAuth
// @Param month path string true "Месяц YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /diary/months/{month}/days [get]
// @Router /diary/month/days [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.diary.monthdays"

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

	records, err := h.service.CurrentMonthDetail(r.Context(), user.ID, chi.URLParam(r, "month"))
	if err != nil {
		log.Error("failed to list month", sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(records))
}
