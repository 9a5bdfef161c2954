// Package mysubscriptions реализует HTTP-обработчик списка подписок
// текущего пользователя.
package mysubscriptions

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

// Handler обрабатывает HTTP-запросы списка подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения подписок пользователя.
type Service interface {
	ListMine(ctx context.Context, userID string) ([]*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список подписок пользователя
// @Description Возвращает все подписки текущего пользователя, новые первыми
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.mysubscriptions"

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

	subs, err := h.service.ListMine(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to list subscriptions"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscriptions": subs,
	}))
}
