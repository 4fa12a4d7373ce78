package middleware

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	userID uuid.UUID
	roles  []string
}

func (f *fakeAuth) ParseToken(_ context.Context, token string) (*jwt.Token, error) {
	switch token {
	case "good", "refresh":
		return &jwt.Token{Raw: token}, nil
	case "expired":
		return nil, app_errors.ErrTokenExpired
	}
	return nil, jwt.ErrTokenMalformed
}

func (f *fakeAuth) IsAccessToken(_ context.Context, token *jwt.Token) bool {
	return token.Raw == "good"
}

func (f *fakeAuth) AccessClaims(_ context.Context, _ string) (uuid.UUID, []string, error) {
	return f.userID, f.roles, nil
}

func (f *fakeAuth) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	if id != f.userID {
		return nil, app_errors.ErrUserNotFound
	}
	return &models.User{ID: id}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(auth *fakeAuth, roles ...string) *gin.Engine {
	p := NewAuthMiddlewareProvider(logger.NewDiscard(), auth, "dormbiz_session")
	r := gin.New()
	handlers := []gin.HandlerFunc{p.AuthMiddleware}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c).String())
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := &fakeAuth{userID: uuid.New(), roles: []string{models.StudentRole}}
	r := newAuthRouter(auth)

	cases := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"bearer", "Bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"expired", "Bearer expired", "", http.StatusUnauthorized},
		{"refresh token", "Bearer refresh", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "dormbiz_session", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, auth.userID.String(), w.Body.String())
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	auth := &fakeAuth{userID: uuid.New(), roles: []string{models.StudentRole}}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	newAuthRouter(auth, models.AdminRole).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	auth.roles = append(auth.roles, models.AdminRole)
	w = httptest.NewRecorder()
	newAuthRouter(auth, models.AdminRole).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	clock := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))

	clock = clock.Add(10 * time.Minute)
	l.Allow("10.0.0.3")
	assert.Len(t, l.visitors, 1)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/v1/products/1", "/v1/products/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, 2, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/products/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
