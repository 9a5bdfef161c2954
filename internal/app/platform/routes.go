// Package platform предоставляет маршруты и жизненный цикл основного приложения.
package platform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/plancreate"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/planremove"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/planupdate"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/settings"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/userlist"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/userremove"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/usersettle"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/admin/userupdate"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/auth/requestotp"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/auth/signup"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/auth/verifyotp"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/payment/activate"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/payment/mysubscriptions"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/payment/subscribe"
	planlist "github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/plans/list"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/public/configinfo"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/public/health"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/public/leaderboard"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/referral/earnings"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/referral/withdraw"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/user/me"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/handlers/user/wallet"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/services"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/storage/repository"
)

// Services собирает бизнес-логику, которую обслуживают маршруты.
type Services struct {
	Auth        *services.AuthService
	Otp         *services.OtpService
	Activation  *services.ActivationService
	Referral    *services.ReferralService
	Leaderboard *services.LeaderboardService
	Config      *services.ConfigService
	Admin       *services.AdminService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services,
	jwtMaker jwt.Maker, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/signup", signup.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/request-otp", requestotp.New(logger, svc.Otp).ServeHTTP)
		r.Post("/auth/verify-otp", verifyotp.New(logger, svc.Otp).ServeHTTP)
		r.Get("/config", configinfo.New(logger, svc.Config).ServeHTTP)
		r.Get("/leaderboard", leaderboard.New(logger, svc.Leaderboard).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(logger, jwtMaker))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/me", me.New(logger, svc.Auth, svc.Referral, db).ServeHTTP)
			r.Post("/me/wallet", wallet.New(logger, svc.Auth).ServeHTTP)
			r.Get("/plans", planlist.New(logger, svc.Admin).ServeHTTP)
			r.Post("/activate", activate.New(logger, svc.Activation).ServeHTTP)
			r.Post("/subscribe", subscribe.New(logger, svc.Activation).ServeHTTP)
			r.Get("/subscriptions", mysubscriptions.New(logger, svc.Activation).ServeHTTP)
			r.Get("/earnings", earnings.New(logger, svc.Referral).ServeHTTP)
			r.Post("/withdraw", withdraw.New(logger, svc.Referral).ServeHTTP)

			// Административная консоль
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Get("/plans", planlist.New(logger, svc.Admin).ServeHTTP)
				r.Post("/plans", plancreate.New(logger, svc.Admin).ServeHTTP)
				r.Patch("/plans/{id}", planupdate.New(logger, svc.Admin).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, svc.Admin).ServeHTTP)
				r.Get("/users", userlist.New(logger, svc.Admin).ServeHTTP)
				r.Patch("/users/{id}", userupdate.New(logger, svc.Admin).ServeHTTP)
				r.Post("/users/{id}/settle", usersettle.New(logger, svc.Referral).ServeHTTP)
				r.Delete("/users/{id}", userremove.New(logger, svc.Admin).ServeHTTP)
				r.Get("/settings", settings.NewGet(logger, svc.Admin).ServeHTTP)
				r.Patch("/settings", settings.NewUpdate(logger, svc.Admin).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
