// Package settings реализует HTTP-обработчики платёжных настроек
// платформы: чтение действующей конфигурации и частичное обновление.
package settings

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

// Service описывает бизнес-логику платёжных настроек.
type Service interface {
	GetSettings(ctx context.Context) (*models.PlatformConfig, error)
	UpdateSettings(ctx context.Context, patch models.DummyConfigPatch) (*models.PlatformConfig, error)
}

// GetHandler обрабатывает чтение настроек.
type GetHandler struct {
	log     *slog.Logger
	service Service
}

// NewGet создает новый экземпляр GetHandler.
func NewGet(log *slog.Logger, service Service) *GetHandler {
	return &GetHandler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Платёжные настройки
// @Description Возвращает действующую платёжную конфигурацию, включая служебные поля
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Платёжные настройки"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/settings [get]
func (h *GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settings.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cfg, err := h.service.GetSettings(r.Context())
	if err != nil {
		log.Error("failed to load settings", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load settings"))
		return
	}

	render.JSON(w, r, response.OKWithData(cfg))
}

// UpdateHandler обрабатывает частичное обновление настроек.
type UpdateHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewUpdate создает новый экземпляр UpdateHandler.
func NewUpdate(log *slog.Logger, service Service) *UpdateHandler {
	return &UpdateHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить платёжные настройки
// @Description Применяет частичное обновление; доли комиссий зажимаются в [0, 10000]
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyConfigPatch true "Изменяемые поля"
// @Success 200 {object} map[string]any "Обновленные настройки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/settings [patch]
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settings.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var patch models.DummyConfigPatch
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

	cfg, err := h.service.UpdateSettings(r.Context(), patch)
	if err != nil {
		log.Error("failed to update settings", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to update settings"))
		return
	}

	log.Info("settings updated", slog.String("network", cfg.PaymentNetwork))
	render.JSON(w, r, response.OKWithData(cfg))
}
