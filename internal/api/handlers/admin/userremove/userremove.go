// Package userremove реализует HTTP-обработчик удаления пользователя
// админом. Пользователь с финансовой историей не удаляется.
package userremove

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

// Handler обрабатывает HTTP-запросы удаления пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику удаления пользователя.
type Service interface {
	DeleteUser(ctx context.Context, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить пользователя
// @Description Удаляет пользователя без подписок, комиссий и заявок на вывод
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} map[string]any "Пользователь удален"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "У пользователя есть финансовая история"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		log.Error("failed to delete user", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to delete user"))
		return
	}

	log.Info("user deleted", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "user deleted",
	}))
}
