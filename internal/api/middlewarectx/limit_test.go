package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware(t *testing.T) {
	middleware := RateLimitMiddleware(newNoopLoggerAuth())

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})

	t.Run("allows requests within rate limit", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(10, 10)
		defer func() { limiter = originalLimiter }()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		for range 10 {
			w := httptest.NewRecorder()
			middleware(testHandler).ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(1, 1)
		defer func() { limiter = originalLimiter }()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		middleware(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		middleware(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, `"too many requests"`+"\n", w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("allows requests after rate limit reset", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(1, 1)
		defer func() { limiter = originalLimiter }()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		middleware(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		middleware(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(1 * time.Second)

		w = httptest.NewRecorder()
		middleware(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("handler not called when rate limited", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(1, 1)
		defer func() { limiter = originalLimiter }()

		var handlerCalled bool
		countingHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		middleware(countingHandler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)

		handlerCalled = false
		w = httptest.NewRecorder()
		middleware(countingHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.False(t, handlerCalled)
	})
}
