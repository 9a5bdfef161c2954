package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/cache"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/config"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/events"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/migrations"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/services"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/storage/repository"
)

// App связывает HTTP-сервер, хранилище и фоновые зависимости платформы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение: хранилище, миграции, кеш, публикацию событий
// и все сервисы с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Публикация событий опциональна: без адреса RabbitMQ платформа
	// работает, события просто не публикуются.
	var publisher events.Publisher
	if cfg.AddressRabbit != "" {
		conn, err := events.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
		if err != nil {
			return nil, err
		}
		publisher, err = events.NewPublisher(conn)
		if err != nil {
			return nil, err
		}
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	sender := services.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), logger)

	configService := services.NewConfigService(db, cacheRedis, cfg.PaymentDefaults, logger)
	referralService := services.NewReferralService(db, db, db, publisher, logger)
	svc := Services{
		Auth:        services.NewAuthService(db, jwtMaker, logger),
		Otp:         services.NewOtpService(db, db, sender, jwtMaker, logger),
		Activation:  services.NewActivationService(db, configService, referralService, services.NewVerifier(logger), publisher, logger),
		Referral:    referralService,
		Leaderboard: services.NewLeaderboardService(db, configService, cacheRedis, logger),
		Config:      configService,
		Admin:       services.NewAdminService(db, configService, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, jwtMaker, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database connection")
		}
		return err
	}
}
