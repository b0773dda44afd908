// Package paymentinfo отдаёт реквизиты для ручной оплаты подписки.
// Оплата проходит вне сервиса, обработчик только показывает данные из конфигурации.
package paymentinfo

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/work-diary/internal/config"
	"github.com/magabrotheeeer/work-diary/internal/http/response"
)

// Handler отдаёт реквизиты оплаты.
type Handler struct {
	info config.PaymentInfo
}

// New создает новый экземпляр Handler.
func New(info config.PaymentInfo) *Handler {
	return &Handler{info: info}
}

// ServeHTTP godoc
// @Summary Реквизиты для оплаты
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscription/payment-info [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(h.info))
}
