package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"siteguard/services"
)

// GetActivityLogsHandler godoc
// @Summary      Get a workspace's activity log
// @Tags         activity-logs
// @Produce      json
// @Security     BearerAuth
// @Param        id     path   string  true   "Workspace ID"
// @Param        page   query  int     false  "Page"   default(1)
// @Param        limit  query  int     false  "Limit"  default(10)
// @Success      200    {object}  models.ActivityLogPage
// @Failure      404    {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/activity [get]
func GetActivityLogsHandler(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 {
			limit = 10
		}

		result, err := svc.ListActivity(c.Request.Context(), currentUserID(c), c.Param("id"), page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
