package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

// GetSafetyReports godoc
// @Summary      List safety reports, newest first
// @Tags         safety
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=[]models.SafetyReport}
// @Router       /api/workspaces/{id}/safety-reports [get]
func GetSafetyReports(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := svc.ListSafetyReports(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, reports)
	}
}

// GetSafetyReport godoc
// @Summary      Get one safety report
// @Tags         safety
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Workspace ID"
// @Param        reportId  path      string  true  "Report ID"
// @Success      200       {object}  models.Response{data=models.SafetyReport}
// @Failure      404       {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/safety-reports/{reportId} [get]
func GetSafetyReport(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.GetSafetyReport(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("reportId"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, report)
	}
}

// CreateSafetyReport godoc
// @Summary      Save a safety report
// @Description  The workspace safety score becomes 100 minus the clamped risk score.
// @Tags         safety
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Workspace ID"
// @Param        request  body      models.SafetyReportRequest  true  "Report"
// @Success      201      {object}  models.Response{data=models.SafetyReport}
// @Router       /api/workspaces/{id}/safety-reports [post]
func CreateSafetyReport(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SafetyReportRequest
		if !bindJSON(c, &req) {
			return
		}
		analysis := models.SafetyAnalysis{
			RiskScore: *req.RiskScore,
			Hazards:   req.Hazards,
			Summary:   req.Summary,
		}
		res, err := svc.SaveSafetyReport(c.Request.Context(), currentUserID(c), c.Param("id"), analysis)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

// AnalyzeSafetyImage godoc
// @Summary      Assess a site photo for hazards with AI
// @Description  Upload a JPEG or PNG up to 8 MiB. With save=true the analysis is stored as a report.
// @Tags         safety
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Workspace ID"
// @Param        image  formData  file    true   "Site photo"
// @Param        save   formData  bool    false  "Store the result"
// @Success      200    {object}  models.Response{data=models.SafetyAnalysis}
// @Success      201    {object}  models.Response{data=models.SafetyReport}
// @Failure      413    {object}  models.ErrorResponse
// @Failure      415    {object}  models.ErrorResponse
// @Failure      429    {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/safety-reports/analyze [post]
func AnalyzeSafetyImage(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		uid := currentUserID(c)
		if _, err := svc.GetWorkspace(ctx, uid, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+1<<20)
		image, err := readImage(c)
		if err != nil {
			respondError(c, err)
			return
		}

		analysis, err := ai.AnalyzeSafetyImage(ctx, image)
		if err != nil {
			respondError(c, err)
			return
		}
		save, _ := strconv.ParseBool(c.PostForm("save"))
		if !save {
			respondData(c, http.StatusOK, analysis)
			return
		}

		res, err := svc.SaveSafetyReport(ctx, uid, c.Param("id"), *analysis)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusCreated, res)
	}
}

func readImage(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errImageTooLarge
		}
		return nil, errMissingImage
	}
	if file.Size > MaxImageBytes {
		return nil, errImageTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, services.ErrInvalidImage
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}
