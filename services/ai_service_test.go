package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"siteguard/metrics"
	"siteguard/models"
)

// fakeGenerator returns canned output and records every request.
type fakeGenerator struct {
	mu       sync.Mutex
	out      string
	err      error
	requests []GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.out, f.err
}

func (f *fakeGenerator) last() GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n0000000000000000")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestAIServiceDisabled(t *testing.T) {
	svc := NewAIService(nil, nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.GenerateArchitecturePlan(context.Background(), "Duplex", "600sqm", "2", "85000000")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestGenerateArchitecturePlan(t *testing.T) {
	gen := &fakeGenerator{out: "```json\n" + `{
		"costEstimate": "₦85,000,000",
		"timeline": "14 months",
		"materials": ["Cement", "Steel"],
		"stages": [{"name": "Project Close-out", "description": "Handover", "duration": "4 weeks"}],
		"summary": "A two-floor duplex."
	}` + "\n```"}
	svc := NewAIService(gen, metrics.New("test"), nil)

	plan, err := svc.GenerateArchitecturePlan(context.Background(), "Duplex", "600sqm", "2", "85000000")
	require.NoError(t, err)
	assert.Equal(t, "A two-floor duplex.", plan.Summary)
	require.Len(t, plan.Stages, 1)
	assert.Equal(t, []string{"Handover"}, plan.Stages[0].Tasks)
	assert.Equal(t, "Cement", plan.Materials[0].Name)

	req := gen.last()
	assert.Equal(t, "architecture_plan", req.Operation)
	assert.Equal(t, genai.TypeObject, req.Schema.Type)
	for _, phase := range []string{
		"Project Acquisition & Bidding",
		"Project Planning & Design",
		"Procurement & Mobilization",
		"Construction & Project Execution",
		"Project Close-out",
	} {
		assert.Contains(t, req.Prompt, phase)
	}
	assert.Contains(t, req.Prompt, "₦85000000")
}

func TestAIErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want error
	}{
		{"quota api error", "", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, ErrUsageLimit},
		{"quota message", "", errors.New("You exceeded your current quota"), ErrUsageLimit},
		{"empty output", "   ", nil, ErrEmptyResponse},
		{"network", "", errors.New("connection reset"), ErrAIFailed},
		{"bad json", "not json", nil, ErrAIFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAIService(&fakeGenerator{out: tt.out, err: tt.err}, nil, nil)
			_, err := svc.GenerateResourceAllocation(context.Background(), "Residential", "Foundation", "1000")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUsageLimitMessage(t *testing.T) {
	assert.Equal(t, "AI Usage Limit Exceeded. Please try again later or upgrade plan.", ErrUsageLimit.Error())
}

func TestAnalyzeSafetyImage(t *testing.T) {
	gen := &fakeGenerator{out: `{"riskScore": 142.6, "hazards": [
		{"description": "Open trench", "severity": "Extreme", "recommendation": "Barricade"}
	], "summary": "Unsafe"}`}
	svc := NewAIService(gen, nil, nil)

	analysis, err := svc.AnalyzeSafetyImage(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, 100.0, analysis.RiskScore)
	assert.Equal(t, models.SeverityMedium, analysis.Hazards[0].Severity)

	req := gen.last()
	assert.Equal(t, "image/png", req.ImageMIME)
	assert.Contains(t, req.Prompt, "PPE violations")

	_, err = svc.AnalyzeSafetyImage(context.Background(), []byte("GIF89a......"))
	assert.ErrorIs(t, err, ErrInvalidImage)
	_, err = svc.AnalyzeSafetyImage(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDetectImageType(t *testing.T) {
	mime, err := DetectImageType(jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
}

func TestGenerateResourceAllocationDerivesStatus(t *testing.T) {
	gen := &fakeGenerator{out: `[
		{"name": "Cement", "quantity": 40, "unit": "bags", "threshold": 100, "status": "Good"},
		{"name": "Sand", "quantity": 90, "unit": "tonnes", "threshold": 100, "status": "Good"},
		{"name": "", "quantity": 1, "threshold": 1}
	]`}
	svc := NewAIService(gen, nil, nil)

	items, err := svc.GenerateResourceAllocation(context.Background(), "Residential", "Foundation", "1000")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.ResourceCritical, items[0].Status)
	assert.Equal(t, models.ResourceLow, items[1].Status)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.Contains(t, gen.last().Prompt, "'Foundation' stage")
}

func TestResourceRecommendationsNeverFail(t *testing.T) {
	items := []models.ResourceItem{{Name: "Cement", Quantity: 10, Threshold: 50}}

	svc := NewAIService(&fakeGenerator{out: "Reorder cement now. Sand is fine."}, nil, nil)
	assert.Equal(t, "Reorder cement now. Sand is fine.", svc.ResourceRecommendations(context.Background(), items))

	svc = NewAIService(&fakeGenerator{out: ""}, nil, nil)
	assert.Equal(t, "AI Insights unavailable.", svc.ResourceRecommendations(context.Background(), items))

	svc = NewAIService(&fakeGenerator{err: errors.New("429 Too Many Requests")}, nil, nil)
	assert.Equal(t, "AI Insights currently unavailable due to usage limits.", svc.ResourceRecommendations(context.Background(), items))
}

func TestGenerateDailyReportPrompt(t *testing.T) {
	gen := &fakeGenerator{out: `{"executiveSummary": "On track", "progressUpdate": "Slab cast"}`}
	svc := NewAIService(gen, nil, nil)

	w := &models.Workspace{
		Name:        "Lekki Towers",
		Stage:       "Foundation",
		Progress:    40,
		SafetyScore: 82,
		Resources: []models.ResourceItem{
			{Name: "Cement", Quantity: 10, Threshold: 100, Status: models.ResourceCritical},
		},
	}
	report, err := svc.GenerateDailyReport(context.Background(), w)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Date)
	assert.Equal(t, []string{}, report.KeyIssues)

	prompt := gen.last().Prompt
	assert.Contains(t, prompt, "Progress: 40%")
	assert.Contains(t, prompt, "Safety Score: 82/100")
	assert.Contains(t, prompt, "Critical Resources (Out of stock): Cement")
	assert.Contains(t, prompt, "Low Resources: None")
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	breaker := NewBreakerGenerator(gen, BreakerConfig{MinRequests: 2, FailureRatio: 0.5}, nil)
	svc := NewAIService(breaker, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.GenerateDailyReport(context.Background(), &models.Workspace{})
		assert.ErrorIs(t, err, ErrAIFailed)
	}
	_, err := svc.GenerateDailyReport(context.Background(), &models.Workspace{})
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Len(t, gen.requests, 2, "open breaker does not call upstream")
}

func TestBreakerIgnoresQuotaErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("RESOURCE_EXHAUSTED")}
	breaker := NewBreakerGenerator(gen, BreakerConfig{MinRequests: 1, FailureRatio: 0.1}, nil)

	for i := 0; i < 3; i++ {
		_, err := breaker.Generate(context.Background(), GenerateRequest{Operation: "op"})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "RESOURCE_EXHAUSTED"))
	}
	assert.Len(t, gen.requests, 3)
}
