package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

// GetArchitecturePlan godoc
// @Summary      Get the workspace's architecture plan
// @Tags         architecture
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.ArchitecturePlan}
// @Failure      404  {object}  models.ErrorResponse  "no plan saved"
// @Router       /api/workspaces/{id}/architecture [get]
func GetArchitecturePlan(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, err := svc.GetArchitecturePlan(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, plan)
	}
}

// SaveArchitecturePlan godoc
// @Summary      Save the plan, replacing any previous one
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Workspace ID"
// @Param        request  body      models.ArchitecturePlanRequest  true  "Plan"
// @Success      201      {object}  models.Response{data=models.ArchitecturePlan}
// @Router       /api/workspaces/{id}/architecture [post]
func SaveArchitecturePlan(svc *services.WorkspaceService) gin.HandlerFunc {
	return savePlanHandler(svc, false, http.StatusCreated)
}

// UpdateArchitecturePlan godoc
// @Summary      Overwrite an existing plan
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Workspace ID"
// @Param        request  body      models.ArchitecturePlanRequest  true  "Plan"
// @Success      200      {object}  models.Response{data=models.ArchitecturePlan}
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/architecture [put]
func UpdateArchitecturePlan(svc *services.WorkspaceService) gin.HandlerFunc {
	return savePlanHandler(svc, true, http.StatusOK)
}

func savePlanHandler(svc *services.WorkspaceService, requireExisting bool, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ArchitecturePlanRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.SaveArchitecturePlan(c.Request.Context(), currentUserID(c), c.Param("id"), req, requireExisting)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, status, res)
	}
}

// DeleteArchitecturePlan godoc
// @Summary      Delete the plan
// @Tags         architecture
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.DeletedRef}
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/architecture [delete]
func DeleteArchitecturePlan(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.DeleteArchitecturePlan(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// GetPlanSections godoc
// @Summary      List plan sections
// @Tags         architecture
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=[]models.PlanSection}
// @Router       /api/workspaces/{id}/architecture/sections [get]
func GetPlanSections(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sections, err := svc.ListSections(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, sections)
	}
}

// AddPlanSection godoc
// @Summary      Append a plan section
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Workspace ID"
// @Param        request  body      models.PlanSection  true  "Section"
// @Success      201      {object}  models.Response{data=models.PlanSection}
// @Router       /api/workspaces/{id}/architecture/sections [post]
func AddPlanSection(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PlanSection
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.AddSection(c.Request.Context(), currentUserID(c), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// GetPlanMaterials godoc
// @Summary      List plan materials
// @Tags         architecture
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=[]models.PlanMaterial}
// @Router       /api/workspaces/{id}/architecture/materials [get]
func GetPlanMaterials(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		materials, err := svc.ListMaterials(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, materials)
	}
}

// AddPlanMaterial godoc
// @Summary      Append a plan material
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Workspace ID"
// @Param        request  body      models.PlanMaterial  true  "Material"
// @Success      201      {object}  models.Response{data=models.PlanMaterial}
// @Router       /api/workspaces/{id}/architecture/materials [post]
func AddPlanMaterial(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PlanMaterial
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.AddMaterial(c.Request.Context(), currentUserID(c), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// GetPlanStages godoc
// @Summary      List plan stages
// @Tags         architecture
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=[]models.PlanStage}
// @Router       /api/workspaces/{id}/architecture/stages [get]
func GetPlanStages(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stages, err := svc.ListStages(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, stages)
	}
}

// AddPlanStage godoc
// @Summary      Append a plan stage
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "Workspace ID"
// @Param        request  body      models.PlanStage  true  "Stage"
// @Success      201      {object}  models.Response{data=models.PlanStage}
// @Router       /api/workspaces/{id}/architecture/stages [post]
func AddPlanStage(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PlanStage
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.AddStage(c.Request.Context(), currentUserID(c), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// GenerateArchitecturePlan godoc
// @Summary      Draft a five-phase project plan with AI
// @Description  With save set the draft replaces the workspace plan.
// @Tags         architecture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Workspace ID"
// @Param        request  body      models.GenerateArchitectureRequest  true  "Building brief"
// @Success      200      {object}  models.Response{data=models.ArchitecturePlan}
// @Failure      429      {object}  models.ErrorResponse
// @Failure      502      {object}  models.ErrorResponse
// @Failure      503      {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/architecture/generate [post]
func GenerateArchitecturePlan(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateArchitectureRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		uid := currentUserID(c)
		if _, err := svc.GetWorkspace(ctx, uid, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		plan, err := ai.GenerateArchitecturePlan(ctx, req.BuildingType, req.LandSize, req.Floors, req.Budget)
		if err != nil {
			respondError(c, err)
			return
		}
		if !req.Save {
			respondData(c, http.StatusOK, plan)
			return
		}

		res, err := svc.SaveGeneratedPlan(ctx, uid, c.Param("id"), *plan)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}
