package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/jpeg"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"siteguard/models"
	"siteguard/services"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000000000000000")

const planJSON = `{
	"costEstimate": "₦85,000,000",
	"timeline": "14 months",
	"materials": ["Cement", "Steel"],
	"stages": [{"name": "Project Acquisition & Bidding", "description": "Tender", "duration": "3 weeks"}],
	"summary": "A two-floor duplex."
}`

func TestGenerateArchitecturePlanSaves(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set(planJSON, nil)

	body := gin.H{"buildingType": "Duplex", "landSize": "600sqm", "floors": "2", "budget": "85000000"}
	rec := s.do(t, http.MethodPost, "/api/workspaces/"+ws.ID+"/architecture/generate", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft := decode[models.ArchitecturePlan](t, rec)
	assert.Equal(t, "14 months", draft.Data.Timeline)
	assert.Empty(t, draft.Invalidate, "an unsaved draft changes nothing")

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/architecture", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body["save"] = true
	rec = s.do(t, http.MethodPost, "/api/workspaces/"+ws.ID+"/architecture/generate", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[models.ArchitecturePlan](t, rec).Invalidate, models.QueryKey{"architecture", ws.ID})

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/architecture", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[models.ArchitecturePlan](t, rec).Data
	require.Len(t, plan.Stages, 1)
	assert.Equal(t, "Project Acquisition & Bidding", plan.Stages[0].Phase)
}

func TestAIErrorStatusCodes(t *testing.T) {
	body := gin.H{"buildingType": "Duplex", "landSize": "600sqm", "floors": "2", "budget": "85000000"}

	cases := []struct {
		name   string
		opts   []serverOption
		out    string
		err    error
		status int
		code   string
	}{
		{name: "disabled", opts: []serverOption{withoutAI()}, status: http.StatusServiceUnavailable, code: "unavailable"},
		{name: "quota", err: errors.New("Error 429, RESOURCE_EXHAUSTED"), status: http.StatusTooManyRequests, code: "usage_limit"},
		{name: "upstream failure", err: errors.New("connection reset"), status: http.StatusBadGateway, code: "ai_failed"},
		{name: "empty output", out: "   ", status: http.StatusBadGateway, code: "ai_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.opts...)
			token := s.signup(t, "ada@thinklab.ng")
			ws := s.createWorkspace(t, token, "Lekki Towers")
			s.gen.set(tc.out, tc.err)

			rec := s.do(t, http.MethodPost, "/api/workspaces/"+ws.ID+"/architecture/generate", token, body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestUsageLimitMessage(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set("", errors.New("quota exceeded"))

	rec := s.do(t, http.MethodPost, "/api/workspaces/"+ws.ID+"/reports/daily", token, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, services.ErrUsageLimit.Error(), body.Message)
}

func TestAIRateLimit(t *testing.T) {
	s := newTestServer(t, withAIRate(1))
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set("Restock cement this week. Sand is fine.", nil)

	path := "/api/workspaces/" + ws.ID + "/resources/recommendations"
	rec := s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/resources", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "non-AI routes are not limited")
}

func TestRecommendationsFallBackOnError(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set("", errors.New("boom"))

	rec := s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/resources/recommendations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode[map[string]string](t, rec).Data
	assert.Equal(t, "AI Insights currently unavailable due to usage limits.", data["recommendation"])
}

func TestAllocateResourcesApply(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set(`[
		{"name": "Cement", "quantity": 40, "unit": "bags", "threshold": 100},
		{"name": "Granite", "quantity": 300, "unit": "tonnes", "threshold": 100}
	]`, nil)

	path := "/api/workspaces/" + ws.ID + "/resources/allocate"
	rec := s.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]models.ResourceItem](t, rec).Data, 2)

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/resources", token, nil)
	assert.Empty(t, decode[[]models.ResourceItem](t, rec).Data, "suggestions are not stored without apply")

	rec = s.do(t, http.MethodPost, path, token, gin.H{"apply": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	applied := decode[[]models.ResourceItem](t, rec)
	assert.Contains(t, applied.Invalidate, models.QueryKey{"resources", ws.ID})

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/resources", token, nil)
	items := decode[[]models.ResourceItem](t, rec).Data
	require.Len(t, items, 2)
	assert.Equal(t, models.ResourceCritical, items[0].Status)
	assert.Equal(t, models.ResourceGood, items[1].Status)
}

func TestAnalyzeSafetyImage(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	path := "/api/workspaces/" + ws.ID + "/safety-reports/analyze"
	s.gen.set(`{"riskScore": 20, "hazards": [{"description": "No helmets", "severity": "Low"}], "summary": "Mostly safe"}`, nil)

	rec := s.upload(t, path, token, "image", "site.png", pngBytes, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 20.0, decode[models.SafetyAnalysis](t, rec).Data.RiskScore)

	rec = s.upload(t, path, token, "image", "site.png", pngBytes, map[string]string{"save": "true"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID, token, nil)
	assert.Equal(t, 80, decode[models.Workspace](t, rec).Data.SafetyScore)

	rec = s.upload(t, path, token, "image", "notes.txt", []byte("just some text"), nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = s.upload(t, path, token, "image", "", nil, map[string]string{"save": "true"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, MaxImageBytes)...)
	rec = s.upload(t, path, token, "image", "huge.png", big, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDailyReportRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	s.gen.set(`{"date": "2026-10-17", "executiveSummary": "On track", "progressUpdate": "Footings poured",
		"keyIssues": ["Cement delivery late"], "recommendations": ["Reorder cement"]}`, nil)
	base := "/api/workspaces/" + ws.ID + "/reports/daily"

	rec := s.do(t, http.MethodPost, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[models.DailyReport](t, rec).Data
	assert.Equal(t, "On track", report.ExecutiveSummary)

	rec = s.do(t, http.MethodGet, base+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="daily_report_Lekki_Towers_2026-10-17.pdf"; filename*=UTF-8''daily_report_Lekki_Towers_2026-10-17.pdf`,
		rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = s.do(t, http.MethodPost, base+"/email", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "SMTP is not configured in tests")
}

func TestWorkspaceQRCode(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")

	rec := s.do(t, http.MethodGet, "/api/workspaces/"+ws.ID+"/qr", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	img, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, qrImageSize, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), qrImageSize)
}

func TestResourceWorkbookRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	base := "/api/workspaces/" + ws.ID + "/resources"

	rec := s.do(t, http.MethodPost, base, token, gin.H{"name": "Cement", "quantity": 80, "unit": "bags", "threshold": 200})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventory_Lekki_Towers.xlsx")
	exported := rec.Body.Bytes()

	f, err := excelize.OpenReader(bytes.NewReader(exported))
	require.NoError(t, err)
	rows, err := f.GetRows(resourceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, resourceColumns, rows[0])
	assert.Equal(t, "Cement", rows[1][0])

	require.NoError(t, f.SetCellValue(resourceSheet, "A3", "Rebar"))
	require.NoError(t, f.SetCellValue(resourceSheet, "B3", 500))
	require.NoError(t, f.SetCellValue(resourceSheet, "D3", 100))
	var edited bytes.Buffer
	require.NoError(t, f.Write(&edited))
	require.NoError(t, f.Close())

	rec = s.upload(t, base+"/import", token, "file", "inventory.xlsx", edited.Bytes(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, base, token, nil)
	items := decode[[]models.ResourceItem](t, rec).Data
	require.Len(t, items, 2)
	assert.Equal(t, "Rebar", items[1].Name)
	assert.Equal(t, models.ResourceGood, items[1].Status)

	rec = s.upload(t, base+"/import", token, "file", "inventory.xlsx", []byte("not a workbook"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceImportRejectsNonFiniteAmounts(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ada@thinklab.ng")
	ws := s.createWorkspace(t, token, "Lekki Towers")
	base := "/api/workspaces/" + ws.ID + "/resources"

	rec := s.do(t, http.MethodPost, base, token, gin.H{"name": "Cement", "quantity": 80, "unit": "bags", "threshold": 200})
	require.Equal(t, http.StatusCreated, rec.Code)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Name", "Quantity", "Threshold"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"Cement", "NaN", "10"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rec = s.upload(t, base+"/import", token, "file", "inventory.xlsx", buf.Bytes(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `invalid quantity`)

	rec = s.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.ResourceItem](t, rec).Data
	require.Len(t, items, 1)
	assert.Equal(t, 80.0, items[0].Quantity)
}

func TestParseResourceRows(t *testing.T) {
	reqs, err := parseResourceRows([][]string{
		{" name ", "QUANTITY", "Threshold"},
		{"Cement", "10", "20"},
		{"", "", ""},
		{"Sand", "5", "1"},
	})
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, 10.0, *reqs[0].Quantity)

	_, err = parseResourceRows([][]string{{"Name", "Quantity"}})
	assert.ErrorContains(t, err, "missing required column: threshold")

	_, err = parseResourceRows([][]string{
		{"Name", "Quantity", "Threshold"},
		{"Cement", "lots", "20"},
		{"", "3", "4"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 2: invalid quantity "lots"`)
	assert.Contains(t, err.Error(), "row 3: name is required")

	_, err = parseResourceRows([][]string{
		{"Name", "Quantity", "Threshold"},
		{"Cement", "NaN", "10"},
		{"Sand", "Inf", "10"},
		{"Gravel", "5", "+Inf"},
		{"Rebar", "-1", "2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 2: invalid quantity "NaN"`)
	assert.Contains(t, err.Error(), `row 3: invalid quantity "Inf"`)
	assert.Contains(t, err.Error(), `row 4: invalid threshold "+Inf"`)
	assert.Contains(t, err.Error(), `row 5: invalid quantity "-1"`)
}
