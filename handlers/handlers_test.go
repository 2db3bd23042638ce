package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"siteguard/config"
	"siteguard/metrics"
	"siteguard/models"
	"siteguard/repository"
	"siteguard/services"
	"siteguard/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
}

// stubGenerator answers every AI call with the same canned output.
type stubGenerator struct {
	mu    sync.Mutex
	out   string
	err   error
	calls int
}

func (g *stubGenerator) Generate(context.Context, services.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.out, g.err
}

func (g *stubGenerator) set(out string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out, g.err = out, err
}

type testServer struct {
	router *gin.Engine
	repo   *repository.MemoryRepository
	gen    *stubGenerator
}

type serverOption func(*Dependencies)

func withoutAI() serverOption {
	return func(d *Dependencies) { d.AI = services.NewAIService(nil, nil, nil) }
}

func withAIRate(perMinute int) serverOption {
	return func(d *Dependencies) { d.AIRatePerMinute = perMinute }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	repo := repository.NewMemoryRepository()
	gen := &stubGenerator{}
	tokens := utils.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour)
	m := metrics.New("test")

	deps := Dependencies{
		Repo:            repo,
		Auth:            services.NewAuthService(repo, tokens, nil),
		Workspaces:      services.NewWorkspaceService(repo, nil, nil),
		AI:              services.NewAIService(gen, m, nil),
		Mailer:          services.NewReportMailer(config.SMTPConfig{}, nil),
		Metrics:         m,
		AIRatePerMinute: 600,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &testServer{router: NewRouter(deps), repo: repo, gen: gen}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path, token, field, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors models.Response with a typed payload.
type envelope[T any] struct {
	Data       T                 `json:"data"`
	Message    string            `json:"message"`
	Invalidate []models.QueryKey `json:"invalidate"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Ada Obi", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.AuthResponse](t, rec).Data.Token
}

func (s *testServer) createWorkspace(t *testing.T, token, name string) models.Workspace {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/workspaces", token, gin.H{
		"name": name, "location": "Lekki Phase 1, Lagos", "stage": "Foundation", "type": "Residential", "budget": "250000000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Workspace](t, rec).Data
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Ada Obi", "email": "Ada@ThinkLab.ng", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := decode[models.AuthResponse](t, rec).Data
	assert.NotEmpty(t, signup.Token)
	assert.NotEmpty(t, signup.RefreshToken)
	assert.Equal(t, "ada@thinklab.ng", signup.User.Email)
	assert.Equal(t, models.RoleSiteEngineer, signup.User.Role)

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ada Again", "email": "ada@thinklab.ng", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@thinklab.ng", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@thinklab.ng", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[models.AuthResponse](t, rec).Data

	rec = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, signup.User.ID, decode[models.User](t, rec).Data.ID)

	rec = s.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[models.AuthResponse](t, rec).Data

	rec = s.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh tokens are single use")

	rec = s.do(t, http.MethodPost, "/api/auth/logout", refreshed.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/auth/me", refreshed.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Ada", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestWorkspaceRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/workspaces", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/workspaces", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkspaceLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")

	rec := s.do(t, http.MethodPost, "/api/workspaces", token, gin.H{"name": "Lekki Towers", "stage": "Foundation"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Workspace](t, rec)
	ws := created.Data
	assert.Equal(t, models.StatusUnderConstruction, ws.Status)
	assert.Equal(t, 100, ws.SafetyScore)
	assert.Equal(t, 0, ws.Progress)
	assert.Contains(t, created.Invalidate, models.QueryKey{"workspaces"})

	rec = s.do(t, http.MethodGet, "/api/workspaces/statistics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.PortfolioStatistics](t, rec).Data.Total)

	rec = s.do(t, http.MethodPatch, "/api/workspaces/"+ws.ID+"/progress", token, gin.H{"progress": 140})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[models.Workspace](t, rec).Data.Progress)

	rec = s.do(t, http.MethodPatch, "/api/workspaces/"+ws.ID+"/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusFinished, decode[models.Workspace](t, rec).Data.Status)

	rec = s.do(t, http.MethodPatch, "/api/workspaces/"+ws.ID+"/progress", token, gin.H{"progress": 50})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "workspace_finished", errorCode(t, rec))

	rec = s.do(t, http.MethodPut, "/api/workspaces/"+ws.ID, token, gin.H{"name": "Lekki Towers II"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lekki Towers II", decode[models.Workspace](t, rec).Data.Name)

	rec = s.do(t, http.MethodGet, "/api/workspaces", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Workspace](t, rec).Data, 1)

	rec = s.do(t, http.MethodDelete, "/api/workspaces/"+ws.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.DeletedRef](t, rec).Data.Deleted)

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/workspaces", token, nil)
	assert.Empty(t, decode[[]models.Workspace](t, rec).Data)
}

func TestWorkspacesAreIsolatedPerUser(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@thinklab.ng")
	other := s.signup(t, "other@thinklab.ng")
	ws := s.createWorkspace(t, owner, "Lekki Towers")

	for _, path := range []string{
		"/api/workspaces/" + ws.ID,
		"/api/workspaces/" + ws.ID + "/resources",
		"/api/workspaces/" + ws.ID + "/safety-reports",
		"/api/workspaces/" + ws.ID + "/activity",
	} {
		rec := s.do(t, http.MethodGet, path, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := s.do(t, http.MethodDelete, "/api/workspaces/"+ws.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResourceRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	base := "/api/workspaces/" + ws.ID + "/resources"

	rec := s.do(t, http.MethodPost, base, token, gin.H{"name": "Cement", "quantity": 80, "unit": "bags", "threshold": 200})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[models.ResourceItem](t, rec)
	cement := added.Data
	assert.Equal(t, models.ResourceCritical, cement.Status)
	assert.Contains(t, added.Invalidate, models.QueryKey{"resources", ws.ID})
	assert.Contains(t, added.Invalidate, models.QueryKey{"resource-statistics", ws.ID})

	rec = s.do(t, http.MethodPatch, base+"/"+cement.ID+"/quantity", token, gin.H{"quantity": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ResourceLow, decode[models.ResourceItem](t, rec).Data.Status)

	rec = s.do(t, http.MethodPut, base+"/"+cement.ID, token, gin.H{"threshold": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ResourceGood, decode[models.ResourceItem](t, rec).Data.Status)

	rec = s.do(t, http.MethodPost, base, token, gin.H{"name": "Rebar", "quantity": -1, "threshold": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/statistics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.ResourceStatistics](t, rec).Data
	assert.Equal(t, 1, stats.ByStatus.Good)

	rec = s.do(t, http.MethodPut, base, token, gin.H{"resources": []gin.H{
		{"name": "Sand", "quantity": 10, "unit": "tons", "threshold": 40},
		{"name": "Gravel", "quantity": 100, "unit": "tons", "threshold": 40},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, base, token, nil)
	items := decode[[]models.ResourceItem](t, rec).Data
	require.Len(t, items, 2)
	assert.Equal(t, "Sand", items[0].Name)
	assert.Equal(t, models.ResourceCritical, items[0].Status)

	rec = s.do(t, http.MethodDelete, base+"/"+items[0].ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, base+"/"+items[0].ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchitectureRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	base := "/api/workspaces/" + ws.ID + "/architecture"

	rec := s.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPut, base, token, gin.H{"summary": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "PUT needs an existing plan")

	rec = s.do(t, http.MethodPost, base, token, gin.H{"summary": "Two-floor duplex", "costEstimate": "₦85,000,000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[models.ArchitecturePlan](t, rec)
	assert.Contains(t, saved.Invalidate, models.QueryKey{"architecture", ws.ID})

	rec = s.do(t, http.MethodPost, base+"/stages", token, gin.H{"phase": "Project Close-out", "duration": "4 weeks"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, base+"/stages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.PlanStage](t, rec).Data, 1)

	rec = s.do(t, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSafetyReportUpdatesScore(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	base := "/api/workspaces/" + ws.ID + "/safety-reports"

	rec := s.do(t, http.MethodPost, base, token, gin.H{
		"riskScore": 35,
		"hazards":   []gin.H{{"description": "Open trench", "severity": "high"}},
		"summary":   "Trench edges unprotected.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[models.SafetyReport](t, rec)
	assert.Equal(t, 35, report.Data.RiskScore)
	assert.Equal(t, models.HazardSeverity("High"), report.Data.Hazards[0].Severity)
	assert.Contains(t, report.Invalidate, models.QueryKey{"workspace", ws.ID})

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID, token, nil)
	assert.Equal(t, 65, decode[models.Workspace](t, rec).Data.SafetyScore)

	rec = s.do(t, http.MethodGet, base+"/"+report.Data.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, base, token, gin.H{"summary": "no score"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityLogPaging(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPatch, "/api/workspaces/"+ws.ID+"/progress", token, gin.H{"progress": 10 * (i + 1)})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/activity?page=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.ActivityLogPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(4), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Storage)
	assert.True(t, health.AI)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "siteguard_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
