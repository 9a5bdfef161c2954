// Package wallet реализует HTTP-обработчик привязки адреса кошелька.
package wallet

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

// Handler обрабатывает HTTP-запросы сохранения адреса кошелька.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику привязки кошелька.
type Service interface {
	SetWallet(ctx context.Context, userID, address string) error
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
// @Summary Сохранить адрес кошелька
// @Description Привязывает адрес кошелька к пользователю; EVM-адрес приводится к нижнему регистру
// @Tags User
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyWallet true "Адрес кошелька"
// @Success 200 {object} map[string]any "Адрес сохранен"
// @Failure 400 {object} response.ErrorResponse "Некорректный адрес"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /me/wallet [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.wallet"

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

	var req models.DummyWallet
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

	if err := h.service.SetWallet(r.Context(), userUID, req.Address); err != nil {
		log.Error("failed to set wallet address", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("invalid wallet address"))
		return
	}

	log.Info("wallet address saved", slog.String("user", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "wallet address saved",
	}))
}
