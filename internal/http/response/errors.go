package response

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/work-diary/internal/models"
)

// FromError подбирает HTTP-статус и тело ответа для ошибки сервисного слоя.
// Неизвестные ошибки дают 500 без подробностей.
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest, Error("status must be work or holiday")
	case errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest, Error("date must be YYYY-MM-DD and month must be YYYY-MM")
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, Error("storage temporarily unavailable")
	case errors.Is(err, models.ErrPersistenceFailed):
		return http.StatusInternalServerError, Error("failed to save record")
	default:
		return http.StatusInternalServerError, Error("internal server error")
	}
}
