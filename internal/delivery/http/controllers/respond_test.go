package controllers

import (
	"DormBiz/internal/app_errors"
	"DormBiz/pkg/logger"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app_errors.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", app_errors.ErrBookingNotFound), http.StatusNotFound},
		{app_errors.ErrNotServiceProvider, http.StatusForbidden},
		{app_errors.ErrSlotTaken, http.StatusConflict},
		{app_errors.ErrGroupFull, http.StatusConflict},
		{app_errors.ErrInvalidSignature, http.StatusUnauthorized},
		{app_errors.ErrFileSize, http.StatusRequestEntityTooLarge},
		{app_errors.ErrOutsideAvailability, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestRespondError_HidesInternal(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		RespondError(c, logger.NewDiscard(), errors.New("pq: password authentication failed"))
	})
	r.GET("/missing", func(c *gin.Context) {
		RespondError(c, logger.NewDiscard(), app_errors.ErrEventNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), app_errors.ErrEventNotFound.Error())
}

func TestParamUUIDAndPage(t *testing.T) {
	r := gin.New()
	r.GET("/items/:item_id", func(c *gin.Context) {
		if _, ok := ParamUUID(c, "item_id"); !ok {
			return
		}
		limit, offset := Page(c)
		c.JSON(http.StatusOK, gin.H{"limit": limit, "offset": offset})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/3f1c2b9e-8d55-4a47-9a0e-2f1d4c7b6a10?limit=5&offset=x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"limit":5,"offset":0}`, w.Body.String())
}

func TestHHMMValidation(t *testing.T) {
	assert.NoError(t, RegisterValidators())

	type slot struct {
		Start string `json:"start" binding:"hhmm"`
	}
	r := gin.New()
	r.POST("/slot", func(c *gin.Context) {
		var in slot
		if err := c.ShouldBindJSON(&in); err != nil {
			BadRequest(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for body, want := range map[string]int{
		`{"start":"09:30"}`: http.StatusNoContent,
		`{"start":"24:00"}`: http.StatusNoContent,
		`{"start":"9am"}`:   http.StatusBadRequest,
		`{"start":"12:61"}`: http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/slot", strings.NewReader(body)))
		assert.Equal(t, want, w.Code, body)
	}
}
