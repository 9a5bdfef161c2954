package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// Глобальный лимитер на все маршруты: 100 запросов в секунду
// с всплеском до 200.
var limiter = rate.NewLimiter(100, 200)

// RateLimitMiddleware отклоняет запросы сверх глобального лимита
// со статусом 429.
func RateLimitMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("rate limit exceeded",
					slog.String("path", r.URL.Path),
					slog.String("remote", r.RemoteAddr))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
