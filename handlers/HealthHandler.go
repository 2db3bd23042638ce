package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"siteguard/models"
	"siteguard/repository"
	"siteguard/services"
	"siteguard/utils"
)

// HealthHandler godoc
// @Summary      Liveness and storage check
// @Tags         health
// @Produce      json
// @Success      200  {object}  models.HealthStatus
// @Failure      503  {object}  models.HealthStatus
// @Router       /api/health [get]
func HealthHandler(repo repository.Repository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.HealthStatus{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Storage:   repo.Driver(),
			AI:        ai.Enabled(),
		}

		ctx, cancel := utils.GetFastQueryContext(c.Request.Context())
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			utils.Logger().Warn("health check: storage unreachable", zap.Error(err))
			status.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
