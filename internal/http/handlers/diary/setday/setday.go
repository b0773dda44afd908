// Package setday реализует HTTP-обработчик отметки дня.
// Маршрут /diary/today пишет сегодняшний день в часовом поясе сервиса,
// маршрут /diary/days/{date} пишет указанный день.
package setday

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/work-diary/internal/http/middlewarectx"
	"github.com/magabrotheeeer/work-diary/internal/http/response"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
)

// Service описывает запись отметки дня.
type Service interface {
	SetDayStatus(ctx context.Context, userID, date string, status models.DayStatus) (*models.DailyRecord, error)
}

// Handler обрабатывает запись отметки дня.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отметить день
// @Tags Diary
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param date path string false "Дата YYYY-MM-DD"
// @Param request body models.DummyDayStatus true "Статус дня"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 402 {object} response.Response "Нужна подписка"
// @Failure 500 {object} response.ErrorResponse
// @Router /diary/days/{date} [put]
// @Router /diary/today [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.diary.setday"

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

	var req models.DummyDayStatus
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validationErrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	date := chi.URLParam(r, "date")
	rec, err := h.service.SetDayStatus(r.Context(), user.ID, date, models.DayStatus(req.Status))
	if err != nil {
		log.Error("failed to set day status", sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	log.Info("day status saved", slog.String("date", rec.Date), slog.String("status", string(rec.Status)))
	render.JSON(w, r, response.StatusOKWithData(rec))
}
