// Package planremove реализует HTTP-обработчик удаления плана админом.
// План с оформленными подписками удалить нельзя.
package planremove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы удаления плана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику удаления плана.
type Service interface {
	DeletePlan(ctx context.Context, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить план
// @Description Удаляет план без подписок; план с подписками следует деактивировать
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Success 200 {object} map[string]any "План удален"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "На план оформлены подписки"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.planremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to delete plan"))
		return
	}

	log.Info("plan deleted", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "plan deleted",
	}))
}
