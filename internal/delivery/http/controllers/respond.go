package controllers

import (
	"DormBiz/internal/app_errors"
	"DormBiz/pkg/logger"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type statusRule struct {
	status int
	errs   []error
}

var statusRules = []statusRule{
	{http.StatusNotFound, []error{
		app_errors.ErrUserNotFound, app_errors.ErrProductNotFound, app_errors.ErrCartItemNotFound,
		app_errors.ErrServiceNotFound, app_errors.ErrOfferNotFound, app_errors.ErrBookingNotFound,
		app_errors.ErrCourseNotFound, app_errors.ErrGroupNotFound, app_errors.ErrAssignmentNotFound,
		app_errors.ErrVoteNotFound, app_errors.ErrEventNotFound, app_errors.ErrNotAttending,
		app_errors.ErrChatNotFound, app_errors.ErrSubscriptionNotFound, app_errors.ErrImageNotFound,
	}},
	{http.StatusForbidden, []error{
		app_errors.ErrForbidden, app_errors.ErrNotProductSeller, app_errors.ErrNotServiceProvider,
		app_errors.ErrNotOrganizer, app_errors.ErrNotMember, app_errors.ErrNotParticipant,
		app_errors.ErrNotEligibleToReview, app_errors.ErrOwnProduct, app_errors.ErrOwnService,
	}},
	{http.StatusConflict, []error{
		app_errors.ErrUserExists, app_errors.ErrAlreadyReviewed, app_errors.ErrSlotTaken,
		app_errors.ErrInvalidTransition, app_errors.ErrCourseExists, app_errors.ErrGroupFull,
		app_errors.ErrAlreadyMember, app_errors.ErrOwnerCannotLeave, app_errors.ErrEventFull,
		app_errors.ErrEventPast, app_errors.ErrAlreadyAttending, app_errors.ErrOutOfStock,
	}},
	{http.StatusUnauthorized, []error{
		app_errors.ErrUnauthenticated, app_errors.ErrIncorrectPassword, app_errors.ErrTokenExpired,
		app_errors.ErrTokenNotFound, app_errors.ErrInvalidSignature,
	}},
	{http.StatusRequestEntityTooLarge, []error{app_errors.ErrFileSize}},
	{http.StatusBadRequest, []error{
		app_errors.ErrWeakPassword, app_errors.ErrNotImage, app_errors.ErrInvalidQuantity,
		app_errors.ErrCartEmpty, app_errors.ErrInvalidTimeSlot, app_errors.ErrOutsideAvailability,
		app_errors.ErrEmptyReview, app_errors.ErrRatingOutOfRange, app_errors.ErrInvalidVote,
		app_errors.ErrEmptyMessage, app_errors.ErrMessageTooLong, app_errors.ErrChatWithSelf,
		app_errors.ErrUnsupportedEvent,
	}},
}

// StatusOf maps a service error to its HTTP status. Unknown errors are 500.
func StatusOf(err error) int {
	for _, rule := range statusRules {
		for _, target := range rule.errs {
			if errors.Is(err, target) {
				return rule.status
			}
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes err as {"error": "..."}. Internal errors are logged
// and hidden from the client.
func RespondError(c *gin.Context, log logger.Log, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.ErrorErr("request failed", err, "path", c.FullPath())
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// ParamUUID parses a path parameter, answering 400 itself when it is not a
// uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// Page reads limit and offset query parameters. Services clamp them.
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
