// Package earnings реализует HTTP-обработчик чтения реферальных
// начислений пользователя.
package earnings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы чтения начислений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения начислений.
type Service interface {
	Earnings(ctx context.Context, userID string) ([]*models.Commission, *models.CommissionSum, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Реферальные начисления пользователя
// @Description Возвращает список комиссий и их суммы по статусам
// @Tags Referrals
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Начисления и суммы"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /earnings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.referral.earnings"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	list, sum, err := h.service.Earnings(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load earnings", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load earnings"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"commissions": list,
		"totals":      sum,
	}))
}
