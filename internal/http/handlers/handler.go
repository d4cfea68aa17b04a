package handlers

import (
	"errors"
	"net/http"

	"scamfeed/internal/http/middleware"
	"scamfeed/internal/logger"
	"scamfeed/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler serves the /api/v1 endpoints
type Handler struct {
	Auth     *service.AuthService
	Rewards  *service.RewardService
	Pipeline *service.PipelineService
	Feed     *service.FeedService
	// MaxUploadBytes caps request bodies carrying images.
	MaxUploadBytes int64
}

func NewHandler(auth *service.AuthService, rewards *service.RewardService, pipeline *service.PipelineService, feed *service.FeedService, maxUploadBytes int64) *Handler {
	return &Handler{
		Auth:           auth,
		Rewards:        rewards,
		Pipeline:       pipeline,
		Feed:           feed,
		MaxUploadBytes: maxUploadBytes,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.ContextUserID)
	return id, id != ""
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrInsufficientFunds):
		status, msg = http.StatusUnprocessableEntity, "insufficient balance"
	case errors.Is(err, service.ErrStorage):
		status, msg = http.StatusServiceUnavailable, "storage unavailable, try again"
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": msg})
}
