package middleware

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClientIDCtx    = "client_id"
	ClientRolesCtx = "client_roles"
)

type AuthService interface {
	ParseToken(ctx context.Context, token string) (*jwt.Token, error)
	IsAccessToken(ctx context.Context, token *jwt.Token) bool
	AccessClaims(ctx context.Context, token string) (userID uuid.UUID, roles []string, err error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthMiddlewareProvider struct {
	log        logger.Log
	service    AuthService
	cookieName string
}

func NewAuthMiddlewareProvider(log logger.Log, s AuthService, cookieName string) *AuthMiddlewareProvider {
	return &AuthMiddlewareProvider{
		log:        log,
		service:    s,
		cookieName: cookieName,
	}
}

// token prefers the Authorization header and falls back to the session
// cookie, which is what browsers send on the websocket upgrade.
func (h *AuthMiddlewareProvider) token(c *gin.Context) string {
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		return cookie
	}
	return ""
}

func (h *AuthMiddlewareProvider) AuthMiddleware(c *gin.Context) {
	token := h.token(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrUnauthenticated.Error()})
		return
	}

	parsedToken, err := h.service.ParseToken(c.Request.Context(), token)
	if err != nil {
		h.log.Debug("failed to parse token", "err", err)
		if errors.Is(err, app_errors.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrTokenExpired.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "cant parse token"})
		return
	}
	if !h.service.IsAccessToken(c.Request.Context(), parsedToken) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not access token"})
		return
	}

	userID, roles, err := h.service.AccessClaims(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	// the account may have been removed after the token was issued
	if _, err := h.service.User(c.Request.Context(), userID); err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(ClientIDCtx, userID)
	c.Set(ClientRolesCtx, roles)
	c.Next()
}

// ClientID returns the authenticated user set by AuthMiddleware.
func ClientID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ClientIDCtx); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
