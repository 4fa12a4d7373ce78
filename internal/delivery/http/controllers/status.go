package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	env     string
	started time.Time
}

func NewStatusHandler(env string) *StatusHandler {
	return &StatusHandler{env: env, started: time.Now()}
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "Available",
		"env":    h.env,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
