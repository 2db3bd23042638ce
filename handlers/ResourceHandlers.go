package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

// GetResources godoc
// @Summary      List a workspace's inventory
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=[]models.ResourceItem}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources [get]
func GetResources(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListResources(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, items)
	}
}

// GetResourceStatistics godoc
// @Summary      Inventory counts by status
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.ResourceStatistics}
// @Router       /api/workspaces/{id}/resources/statistics [get]
func GetResourceStatistics(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.ResourceStatistics(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, stats)
	}
}

// GetResource godoc
// @Summary      Get one inventory line
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true  "Workspace ID"
// @Param        resourceId  path      string  true  "Resource ID"
// @Success      200         {object}  models.Response{data=models.ResourceItem}
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources/{resourceId} [get]
func GetResource(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := svc.GetResource(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("resourceId"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, item)
	}
}

// CreateResource godoc
// @Summary      Add an inventory line; status is derived from quantity and threshold
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Workspace ID"
// @Param        request  body      models.ResourceRequest  true  "Resource"
// @Success      201      {object}  models.Response{data=models.ResourceItem}
// @Failure      400      {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources [post]
func CreateResource(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ResourceRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.AddResource(c.Request.Context(), currentUserID(c), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// ReplaceResources godoc
// @Summary      Replace the whole inventory
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Workspace ID"
// @Param        request  body      models.BulkResourcesRequest  true  "Resources"
// @Success      200      {object}  models.Response{data=[]models.ResourceItem}
// @Router       /api/workspaces/{id}/resources [put]
func ReplaceResources(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BulkResourcesRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.ReplaceResources(c.Request.Context(), currentUserID(c), c.Param("id"), req.Resources)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// UpdateResource godoc
// @Summary      Update an inventory line
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string                        true  "Workspace ID"
// @Param        resourceId  path      string                        true  "Resource ID"
// @Param        request     body      models.UpdateResourceRequest  true  "Fields to change"
// @Success      200         {object}  models.Response{data=models.ResourceItem}
// @Router       /api/workspaces/{id}/resources/{resourceId} [put]
func UpdateResource(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateResourceRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.UpdateResource(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("resourceId"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// UpdateResourceQuantity godoc
// @Summary      Set the quantity of an inventory line
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string                  true  "Workspace ID"
// @Param        resourceId  path      string                  true  "Resource ID"
// @Param        request     body      models.QuantityRequest  true  "Quantity"
// @Success      200         {object}  models.Response{data=models.ResourceItem}
// @Router       /api/workspaces/{id}/resources/{resourceId}/quantity [patch]
func UpdateResourceQuantity(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QuantityRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.UpdateResourceQuantity(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("resourceId"), *req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// DeleteResource godoc
// @Summary      Remove an inventory line
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true  "Workspace ID"
// @Param        resourceId  path      string  true  "Resource ID"
// @Success      200         {object}  models.Response{data=models.DeletedRef}
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources/{resourceId} [delete]
func DeleteResource(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.DeleteResource(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("resourceId"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// AllocateResources godoc
// @Summary      Suggest an inventory for the workspace stage with AI
// @Description  Empty fields fall back to the workspace's type, stage and budget. With apply set the suggestion replaces the inventory.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Workspace ID"
// @Param        request  body      models.AllocateResourcesRequest  false "Allocation input"
// @Success      200      {object}  models.Response{data=[]models.ResourceItem}
// @Failure      429      {object}  models.ErrorResponse
// @Failure      502      {object}  models.ErrorResponse
// @Failure      503      {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources/allocate [post]
func AllocateResources(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AllocateResourcesRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}

		ctx := c.Request.Context()
		uid := currentUserID(c)
		w, err := svc.GetWorkspace(ctx, uid, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if req.ProjectType == "" {
			req.ProjectType = w.Type
		}
		if req.Stage == "" {
			req.Stage = w.Stage
		}
		if req.Budget == "" {
			req.Budget = w.Budget
		}

		items, err := ai.GenerateResourceAllocation(ctx, req.ProjectType, req.Stage, req.Budget)
		if err != nil {
			respondError(c, err)
			return
		}
		if !req.Apply {
			respondData(c, http.StatusOK, items)
			return
		}

		res, err := svc.ApplyResources(ctx, uid, w.ID, items, "resource.ai_allocated")
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// GetResourceRecommendations godoc
// @Summary      Two-sentence stock planning advice
// @Description  Never fails on AI errors; a fallback sentence is returned instead.
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response
// @Router       /api/workspaces/{id}/resources/recommendations [get]
func GetResourceRecommendations(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListResources(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		text := ai.ResourceRecommendations(c.Request.Context(), items)
		respondData(c, http.StatusOK, gin.H{"recommendation": text})
	}
}
