// Package planupdate реализует HTTP-обработчик частичного обновления
// плана админом.
package planupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы обновления плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику обновления плана.
type Service interface {
	UpdatePlan(ctx context.Context, id string, patch models.DummyPlanPatch) (*models.Plan, error)
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
// @Summary Обновить план
// @Description Применяет частичное обновление плана по ID
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID плана"
// @Param request body models.DummyPlanPatch true "Изменяемые поля"
// @Success 200 {object} map[string]any "Обновленный план"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или цена"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plans/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.planupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var patch models.DummyPlanPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(patch); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), id, patch)
	if err != nil {
		log.Error("failed to update plan", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to update plan"))
		return
	}

	log.Info("plan updated", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan": plan,
	}))
}
