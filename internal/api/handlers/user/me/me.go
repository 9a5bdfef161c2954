// Package me реализует HTTP-обработчик профиля: данные пользователя,
// его подписки, реферальную статистику и заявки на вывод.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/http/response"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/services"
)

// Handler обрабатывает HTTP-запросы профиля пользователя.
type Handler struct {
	log       *slog.Logger
	auth      AuthService
	referrals ReferralService
	counter   services.ReferralCounter
}

// AuthService описывает бизнес-логику получения профиля.
type AuthService interface {
	Me(ctx context.Context, userID string) (*models.User, error)
}

// ReferralService описывает бизнес-логику реферальной статистики
// и заявок на вывод.
type ReferralService interface {
	Stats(ctx context.Context, userID string, counter services.ReferralCounter) (*models.ReferralStats, error)
	ListWithdrawals(ctx context.Context, userID string) ([]*models.Withdrawal, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth AuthService, referrals ReferralService,
	counter services.ReferralCounter) *Handler {
	return &Handler{
		log:       log,
		auth:      auth,
		referrals: referrals,
		counter:   counter,
	}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль, реферальную статистику и заявки на вывод
// @Tags User
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"

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

	user, err := h.auth.Me(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load profile"))
		return
	}

	stats, err := h.referrals.Stats(r.Context(), userUID, h.counter)
	if err != nil {
		log.Error("failed to load referral stats", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load referral stats"))
		return
	}

	withdrawals, err := h.referrals.ListWithdrawals(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load withdrawals", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to load withdrawals"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":        user,
		"referrals":   stats,
		"withdrawals": withdrawals,
	}))
}
