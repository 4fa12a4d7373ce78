package user

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileService interface {
	Profile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, f upload.File) (string, error)
}

type SubscriptionService interface {
	Subscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type ProfileHandler struct {
	log           logger.Log
	profiles      ProfileService
	subscriptions SubscriptionService
}

func NewProfileHandler(l logger.Log, p ProfileService, s SubscriptionService) *ProfileHandler {
	return &ProfileHandler{log: l, profiles: p, subscriptions: s}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) User(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "user_id")
	if !ok {
		return
	}
	profile, err := h.profiles.Profile(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	profile.Email = ""
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Bio      *string `json:"bio" binding:"omitempty,max=1000"`
	Campus   *string `json:"campus" binding:"omitempty,max=100"`
}

func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var input updateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), middleware.ClientID(c), models.ProfileUpdate{
		FullName: input.FullName,
		Bio:      input.Bio,
		Campus:   input.Campus,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	f, closer, err := controllers.FormImage(c)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	defer closer.Close()

	url, err := h.profiles.UploadAvatar(c.Request.Context(), middleware.ClientID(c), f)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *ProfileHandler) Subscription(c *gin.Context) {
	sub, err := h.subscriptions.Subscription(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
