// Package getday реализует HTTP-обработчик чтения отметки дня.
package getday

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

// Service описывает чтение отметки дня.
type Service interface {
	GetDayStatus(ctx context.Context, userID, date string) (models.DayStatus, bool, error)
	// Today возвращает сегодняшнюю дату в часовом поясе сервера.
	Today() string
}

// Handler обрабатывает чтение отметки дня.
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

// Response отметка дня. Если отметки нет, Found равен false, а Status пустой.
type Response struct {
	Date   string           `json:"date"`
	Status models.DayStatus `json:"status,omitempty"`
	Found  bool             `json:"found"`
}

// ServeHTTP godoc
// @Summary Отметка дня
// @Tags Diary
// @Produce  json
// @Security BearerAuth
// @Param date path string true "Дата YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /diary/days/{date} [get]
// @Router /diary/today [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.diary.getday"

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

	date := chi.URLParam(r, "date")
	if date == "" {
		date = h.service.Today()
	}
	status, found, err := h.service.GetDayStatus(r.Context(), user.ID, date)
	if err != nil {
		log.Error("failed to get day status", sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Response{Date: date, Status: status, Found: found}))
}
