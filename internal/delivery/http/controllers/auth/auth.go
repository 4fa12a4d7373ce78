package auth

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthService interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	LoginUser(ctx context.Context, login, password string) (accessToken, refreshToken string, err error)
	RefreshTokens(ctx context.Context, token string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// Cookie describes the HttpOnly session cookie that carries the access token.
type Cookie struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	log     logger.Log
	service AuthService
	cookie  Cookie
}

func NewAuthHandler(l logger.Log, s AuthService, cookie Cookie) *AuthHandler {
	return &AuthHandler{
		log:     l,
		service: s,
		cookie:  cookie,
	}
}

func (h *AuthHandler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"max=100"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input registerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	// roles are never taken from the client
	user, err := h.service.CreateUser(c.Request.Context(), models.User{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
		FullName: input.FullName,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "message": "registration success"})
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	accessToken, refreshToken, err := h.service.LoginUser(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	h.setSession(c, accessToken, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input tokenRefreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	tokenPair, err := h.service.RefreshTokens(c.Request.Context(), input.RefreshToken)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	h.setSession(c, tokenPair.AccessToken.Raw, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokenPair.AccessToken.Raw,
		RefreshToken: tokenPair.RefreshToken.Raw,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	h.setSession(c, "", -1)
	c.Status(http.StatusNoContent)
}
