package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"siteguard/models"
	"siteguard/repository"
	"siteguard/services"
	"siteguard/utils"
)

const (
	ctxUserID    = "user_id"
	ctxSessionID = "session_id"
	ctxUser      = "user"
	ctxRequestID = "request_id"
)

var (
	errImageTooLarge = errors.New("image exceeds the 8 MiB limit")
	errRateLimited   = errors.New("too many AI requests, slow down")
	errMissingToken  = errors.New("missing bearer token")
	errMissingImage  = errors.New("multipart field \"image\" is required")
)

// MaxImageBytes caps safety image uploads.
const MaxImageBytes = 8 << 20

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.Response{Data: data})
}

// respondResult writes a mutation result together with its invalidated keys.
func respondResult[T any](c *gin.Context, status int, res services.Result[T]) {
	c.JSON(status, models.Response{Data: res.Data, Invalidate: res.Invalidate})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, models.Response{Data: gin.H{}, Message: message})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: code, Message: message})
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}
	return true
}

// respondError maps service and repository errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errMissingImage):
		abortWithError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		abortWithError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrWorkspaceFinished):
		abortWithError(c, http.StatusConflict, "workspace_finished", err.Error())
	case errors.Is(err, repository.ErrConflict):
		abortWithError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, errMissingToken):
		abortWithError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, errImageTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, services.ErrInvalidImage):
		abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, services.ErrUsageLimit):
		abortWithError(c, http.StatusTooManyRequests, "usage_limit", err.Error())
	case errors.Is(err, errRateLimited):
		abortWithError(c, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, services.ErrAIFailed), errors.Is(err, services.ErrEmptyResponse):
		abortWithError(c, http.StatusBadGateway, "ai_failed", err.Error())
	case errors.Is(err, services.ErrAIUnavailable), errors.Is(err, services.ErrMailDisabled):
		abortWithError(c, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		utils.Logger().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
