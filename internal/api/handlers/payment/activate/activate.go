// Package activate реализует HTTP-обработчик активации независимого
// пакета: платёж проверяется в сети, под метку создаётся план.
package activate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Handler обрабатывает HTTP-запросы активации пакета.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику активации пакета.
type Service interface {
	ActivatePackage(ctx context.Context, userID string, req models.DummyActivate) (*models.Subscription, error)
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
// @Summary Активировать независимый пакет
// @Description Проверяет платёж по хэшу транзакции и активирует пакет на 30 дней
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyActivate true "Метка пакета, сумма и хэш транзакции"
// @Success 200 {object} map[string]any "Подписка активирована"
// @Failure 400 {object} response.ErrorResponse "Платёж не подтвержден или кошелёк не привязан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 409 {object} response.ErrorResponse "Хэш транзакции уже использован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Платёжная конфигурация не настроена"
// @Router /activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.activate"

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

	var req models.DummyActivate
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

	sub, err := h.service.ActivatePackage(r.Context(), userUID, req)
	if err != nil {
		log.Error("activation failed", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to activate package"))
		return
	}

	log.Info("package activated",
		slog.String("user", userUID),
		slog.String("tx_hash", req.TxHash))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
	}))
}
