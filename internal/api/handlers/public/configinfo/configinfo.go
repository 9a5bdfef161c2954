// Package configinfo реализует публичный HTTP-обработчик платёжной
// конфигурации: клиенту нужны адрес казны, токен и параметры сети,
// чтобы сформировать платёж.
package configinfo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы публичной конфигурации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику разрешения конфигурации.
type Service interface {
	Resolve(ctx context.Context) (*models.PlatformConfig, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Публичная платёжная конфигурация
// @Description Возвращает адрес казны, токен и параметры сети для совершения платежа
// @Tags Public
// @Produce  json
// @Success 200 {object} map[string]any "Платёжная конфигурация"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /config [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.configinfo"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cfg, err := h.service.Resolve(r.Context())
	if err != nil {
		log.Error("failed to resolve config", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load config"))
		return
	}

	render.JSON(w, r, response.OKWithData(cfg.Public()))
}
