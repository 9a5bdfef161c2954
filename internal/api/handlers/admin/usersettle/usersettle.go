// Package usersettle реализует HTTP-обработчик отметки о выплате
// комиссий пользователю.
package usersettle

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

// Handler обрабатывает HTTP-запросы отметки выплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику закрытия комиссий.
type Service interface {
	SettleCommissions(ctx context.Context, userID string, req models.DummySettle) (int64, error)
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
// @Summary Отметить комиссии выплаченными
// @Description Переводит ожидающие комиссии пользователя в статус PAID на указанную сумму
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.DummySettle true "Сумма выплаты"
// @Success 200 {object} map[string]any "Число закрытых начислений"
// @Failure 400 {object} response.ErrorResponse "Некорректная сумма"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id}/settle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.usersettle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.DummySettle
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

	count, err := h.service.SettleCommissions(r.Context(), id, req)
	if err != nil {
		log.Error("failed to settle commissions", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to settle commissions"))
		return
	}

	log.Info("commissions settled", slog.String("id", id), slog.Int64("count", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"settled": count,
	}))
}
