// Package leaderboard реализует публичный HTTP-обработчик месячного
// рейтинга спонсоров.
package leaderboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы рейтинга спонсоров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику построения рейтинга.
type Service interface {
	Monthly(ctx context.Context, at time.Time) ([]*models.SponsorVolume, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Месячный рейтинг спонсоров
// @Description Возвращает объёмы покупок рефералов по спонсорам за текущий месяц в USD
// @Tags Public
// @Produce  json
// @Success 200 {object} map[string]any "Рейтинг спонсоров"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leaderboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.leaderboard"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rows, err := h.service.Monthly(r.Context(), time.Now().UTC())
	if err != nil {
		log.Error("failed to build leaderboard", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load leaderboard"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"leaderboard": rows,
	}))
}
