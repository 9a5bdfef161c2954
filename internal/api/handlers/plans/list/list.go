// Package list реализует HTTP-обработчик каталога планов.
// Обычный пользователь видит только активные планы, админ — все.
package list

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

// Handler обрабатывает HTTP-запросы каталога планов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения каталога.
type Service interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог планов
// @Description Возвращает планы каталога; неактивные планы видит только админ
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список планов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	activeOnly := role != models.RoleAdmin

	plans, err := h.service.ListPlans(r.Context(), activeOnly)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to list plans"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": plans,
	}))
}
