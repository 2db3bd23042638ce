package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

// dailyReport loads the workspace and has the model write today's report.
func dailyReport(c *gin.Context, svc *services.WorkspaceService, ai *services.AIService) (*models.DailyReportDocument, error) {
	ctx := c.Request.Context()
	w, err := svc.GetWorkspace(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		return nil, err
	}
	report, err := ai.GenerateDailyReport(ctx, w)
	if err != nil {
		return nil, err
	}
	return &models.DailyReportDocument{Workspace: *w, Report: *report}, nil
}

// GenerateDailyReport godoc
// @Summary      Generate today's site report with AI
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.DailyReport}
// @Failure      429  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/reports/daily [post]
func GenerateDailyReport(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := dailyReport(c, svc, ai)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, doc.Report)
	}
}

// DownloadDailyReportPDF godoc
// @Summary      Generate today's site report as a PDF
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {file}    file    "PDF document"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/reports/daily/pdf [get]
func DownloadDailyReportPDF(svc *services.WorkspaceService, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := dailyReport(c, svc, ai)
		if err != nil {
			respondError(c, err)
			return
		}

		var buf bytes.Buffer
		if err := services.RenderDailyReportPDF(*doc, &buf); err != nil {
			respondError(c, err)
			return
		}
		filename := services.DailyReportFilename(doc.Workspace, doc.Report.Date)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

// EmailDailyReport godoc
// @Summary      Email today's site report to the signed-in user
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  models.Response{data=models.DailyReport}
// @Failure      503  {object}  models.ErrorResponse  "mail or AI not configured"
// @Router       /api/workspaces/{id}/reports/daily/email [post]
func EmailDailyReport(svc *services.WorkspaceService, ai *services.AIService, mailer *services.ReportMailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mailer.Enabled() {
			respondError(c, services.ErrMailDisabled)
			return
		}
		user := currentUser(c)
		if user == nil {
			respondError(c, errMissingToken)
			return
		}
		doc, err := dailyReport(c, svc, ai)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := mailer.SendDailyReport(c.Request.Context(), *user, *doc); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.Response{
			Data:    doc.Report,
			Message: "Report sent to " + user.Email,
		})
	}
}
