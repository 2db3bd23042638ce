package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"siteguard/metrics"
	"siteguard/repository"
	"siteguard/services"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Repo       repository.Repository
	Auth       *services.AuthService
	Workspaces *services.WorkspaceService
	AI         *services.AIService
	Mailer     *services.ReportMailer
	Metrics    *metrics.Metrics
	Log        *zap.Logger

	CORSOrigins     []string
	AIRatePerMinute int
}

// NewRouter builds the gin engine with middleware and every API route.
func NewRouter(d Dependencies) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = MaxImageBytes
	r.Use(Recovery(log), RequestLogger(log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(CORSConfig(d.CORSOrigins)))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	api := r.Group("/api")
	api.GET("/health", HealthHandler(d.Repo, d.AI))

	// ==================== AUTH ====================
	auth := api.Group("/auth")
	auth.POST("/signup", SignupHandler(d.Auth))
	auth.POST("/register", SignupHandler(d.Auth))
	auth.POST("/login", LoginHandler(d.Auth))
	auth.POST("/refresh", RefreshHandler(d.Auth))
	auth.POST("/logout", RequireAuth(d.Auth), LogoutHandler(d.Auth))
	auth.GET("/me", RequireAuth(d.Auth), MeHandler())

	perMinute := d.AIRatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	aiLimit := NewUserRateLimiter(perMinute).Middleware()

	svc := d.Workspaces
	ws := api.Group("/workspaces", RequireAuth(d.Auth))

	// ==================== WORKSPACES ====================
	ws.GET("", GetWorkspaces(svc))
	ws.POST("", CreateWorkspace(svc))
	ws.GET("/statistics", GetWorkspaceStatistics(svc))
	ws.GET("/:id", GetWorkspace(svc))
	ws.PUT("/:id", UpdateWorkspace(svc))
	ws.DELETE("/:id", DeleteWorkspace(svc))
	ws.PATCH("/:id/progress", UpdateWorkspaceProgress(svc))
	ws.PATCH("/:id/status", ToggleWorkspaceStatus(svc))
	ws.GET("/:id/qr", GetWorkspaceQRCode(svc))
	ws.GET("/:id/activity", GetActivityLogsHandler(svc))

	// ==================== RESOURCES ====================
	ws.GET("/:id/resources", GetResources(svc))
	ws.POST("/:id/resources", CreateResource(svc))
	ws.PUT("/:id/resources", ReplaceResources(svc))
	ws.GET("/:id/resources/statistics", GetResourceStatistics(svc))
	ws.GET("/:id/resources/export", ExportResourcesXLSX(svc))
	ws.POST("/:id/resources/import", ImportResourcesXLSX(svc))
	ws.POST("/:id/resources/allocate", aiLimit, AllocateResources(svc, d.AI))
	ws.GET("/:id/resources/recommendations", aiLimit, GetResourceRecommendations(svc, d.AI))
	ws.GET("/:id/resources/:resourceId", GetResource(svc))
	ws.PUT("/:id/resources/:resourceId", UpdateResource(svc))
	ws.DELETE("/:id/resources/:resourceId", DeleteResource(svc))
	ws.PATCH("/:id/resources/:resourceId/quantity", UpdateResourceQuantity(svc))

	// ==================== ARCHITECTURE ====================
	ws.GET("/:id/architecture", GetArchitecturePlan(svc))
	ws.POST("/:id/architecture", SaveArchitecturePlan(svc))
	ws.PUT("/:id/architecture", UpdateArchitecturePlan(svc))
	ws.DELETE("/:id/architecture", DeleteArchitecturePlan(svc))
	ws.GET("/:id/architecture/sections", GetPlanSections(svc))
	ws.POST("/:id/architecture/sections", AddPlanSection(svc))
	ws.GET("/:id/architecture/materials", GetPlanMaterials(svc))
	ws.POST("/:id/architecture/materials", AddPlanMaterial(svc))
	ws.GET("/:id/architecture/stages", GetPlanStages(svc))
	ws.POST("/:id/architecture/stages", AddPlanStage(svc))
	ws.POST("/:id/architecture/generate", aiLimit, GenerateArchitecturePlan(svc, d.AI))

	// ==================== SAFETY ====================
	ws.GET("/:id/safety-reports", GetSafetyReports(svc))
	ws.POST("/:id/safety-reports", CreateSafetyReport(svc))
	ws.POST("/:id/safety-reports/analyze", aiLimit, AnalyzeSafetyImage(svc, d.AI))
	ws.GET("/:id/safety-reports/:reportId", GetSafetyReport(svc))

	// ==================== REPORTS ====================
	ws.POST("/:id/reports/daily", aiLimit, GenerateDailyReport(svc, d.AI))
	ws.GET("/:id/reports/daily/pdf", aiLimit, DownloadDailyReportPDF(svc, d.AI))
	ws.POST("/:id/reports/daily/email", aiLimit, EmailDailyReport(svc, d.AI, d.Mailer))

	return r
}
