// Package plancreate реализует HTTP-обработчик создания плана админом.
package plancreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы создания плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику создания плана.
type Service interface {
	CreatePlan(ctx context.Context, req models.DummyPlan) (string, error)
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
// @Summary Создать план
// @Description Создает план каталога с уникальным названием
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPlan true "Данные плана"
// @Success 200 {object} map[string]any "План создан"
// @Failure 400 {object} response.ErrorResponse "Некорректная цена"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 409 {object} response.ErrorResponse "Название уже занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPlan
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to create plan"))
		return
	}

	log.Info("plan created", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
