package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

func newNoopLoggerAuth() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	validToken, err := maker.GenerateToken("user123", models.RoleUser)
	assert.NoError(t, err)
	adminToken, err := maker.GenerateToken("admin123", models.RoleAdmin)
	assert.NoError(t, err)
	expiredToken, err := jwt.NewJWTMaker("test-secret", -time.Hour).GenerateToken("user123", models.RoleUser)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
		expectedCtx    map[Key]any
	}{
		{
			name:           "success - valid token",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			expectedCtx: map[Key]any{
				UserUID: "user123",
				Role:    models.RoleUser,
			},
		},
		{
			name:           "valid token with admin role",
			authHeader:     "Bearer " + adminToken,
			expectedStatus: http.StatusOK,
			expectedCtx: map[Key]any{
				UserUID: "admin123",
				Role:    models.RoleAdmin,
			},
		},
		{
			name:           "missing authorization header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"missing or invalid authorization header"}`,
		},
		{
			name:           "invalid authorization header format",
			authHeader:     "InvalidFormat token123",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"missing or invalid authorization header"}`,
		},
		{
			name:           "garbage token",
			authHeader:     "Bearer not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid or expired token"}`,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid or expired token"}`,
		},
		{
			name:           "token signed with another secret",
			authHeader:     "Bearer " + mustToken(t, "other-secret"),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid or expired token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := JWTMiddleware(newNoopLoggerAuth(), maker)

			var capturedCtx context.Context
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedCtx = r.Context()
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			middleware(testHandler).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			if tt.expectedStatus == http.StatusOK && tt.expectedCtx != nil {
				assert.NotNil(t, capturedCtx)
				for key, expected := range tt.expectedCtx {
					assert.Equal(t, expected, capturedCtx.Value(key))
				}
			}
		})
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewJWTMaker(secret, time.Hour).GenerateToken("user123", models.RoleUser)
	assert.NoError(t, err)
	return token
}

func TestAdminOnlyMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		role           any
		expectedStatus int
	}{
		{"admin passes", models.RoleAdmin, http.StatusOK},
		{"user forbidden", models.RoleUser, http.StatusForbidden},
		{"role missing", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := AdminOnlyMiddleware(newNoopLoggerAuth())

			var handlerCalled bool
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/plans", nil)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.role))
			}

			w := httptest.NewRecorder()
			middleware(testHandler).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, handlerCalled)
		})
	}
}
