package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

// GetWorkspaces godoc
// @Summary      List the caller's workspaces, newest first
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Response{data=[]models.Workspace}
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/workspaces [get]
func GetWorkspaces(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListWorkspaces(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, list)
	}
}

// GetWorkspaceStatistics godoc
// @Summary      Portfolio statistics
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Response{data=models.PortfolioStatistics}
// @Router       /api/workspaces/statistics [get]
func GetWorkspaceStatistics(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.PortfolioStatistics(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, stats)
	}
}

// GetWorkspace godoc
// @Summary      Get a workspace with resources, plan and safety reports
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.Workspace}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id} [get]
func GetWorkspace(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := svc.GetWorkspace(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, w)
	}
}

// CreateWorkspace godoc
// @Summary      Create a workspace
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.CreateWorkspaceRequest  true  "Workspace"
// @Success      201      {object}  models.Response{data=models.Workspace}
// @Failure      400      {object}  models.ErrorResponse
// @Router       /api/workspaces [post]
func CreateWorkspace(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateWorkspaceRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.CreateWorkspace(c.Request.Context(), currentUserID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// UpdateWorkspace godoc
// @Summary      Update workspace fields
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Workspace ID"
// @Param        request  body      models.UpdateWorkspaceRequest  true  "Fields to change"
// @Success      200      {object}  models.Response{data=models.Workspace}
// @Failure      404      {object}  models.ErrorResponse
// @Failure      409      {object}  models.ErrorResponse
// @Router       /api/workspaces/{id} [put]
func UpdateWorkspace(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateWorkspaceRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.UpdateWorkspace(c.Request.Context(), currentUserID(c), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// UpdateWorkspaceProgress godoc
// @Summary      Set progress (clamped to 0-100)
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Workspace ID"
// @Param        request  body      models.ProgressRequest  true  "Progress"
// @Success      200      {object}  models.Response{data=models.Workspace}
// @Failure      409      {object}  models.ErrorResponse  "workspace is finished"
// @Router       /api/workspaces/{id}/progress [patch]
func UpdateWorkspaceProgress(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProgressRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.UpdateProgress(c.Request.Context(), currentUserID(c), c.Param("id"), *req.Progress)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// ToggleWorkspaceStatus godoc
// @Summary      Toggle between Under Construction and Finished
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.Workspace}
// @Router       /api/workspaces/{id}/status [patch]
func ToggleWorkspaceStatus(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ToggleStatus(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// DeleteWorkspace godoc
// @Summary      Delete a workspace and everything it owns
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.DeletedRef}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id} [delete]
func DeleteWorkspace(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.DeleteWorkspace(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}
