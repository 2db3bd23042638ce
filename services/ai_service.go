package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"siteguard/metrics"
	"siteguard/models"
)

const (
	recommendationsUnavailable = "AI Insights unavailable."
	recommendationsLimited     = "AI Insights currently unavailable due to usage limits."
)

// AIService turns site data into model prompts and decodes the structured
// answers. A nil Generator disables every call.
type AIService struct {
	gen     Generator
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewAIService(gen Generator, m *metrics.Metrics, log *zap.Logger) *AIService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AIService{gen: gen, metrics: m, log: log, now: time.Now}
}

func (s *AIService) Enabled() bool { return s.gen != nil }

// call runs one generation and maps its failure to a service error.
func (s *AIService) call(ctx context.Context, req GenerateRequest) (string, error) {
	if s.gen == nil {
		return "", ErrAIUnavailable
	}

	start := time.Now()
	out, err := s.gen.Generate(ctx, req)
	outcome := "ok"
	defer func() { s.metrics.ObserveAICall(req.Operation, outcome, time.Since(start)) }()

	switch {
	case err == nil && strings.TrimSpace(out) == "":
		outcome = "empty"
		return "", ErrEmptyResponse
	case err == nil:
		return out, nil
	case errors.Is(err, ErrAIUnavailable):
		outcome = "unavailable"
		return "", err
	case isQuotaError(err):
		outcome = "quota"
		s.log.Warn("gemini quota exhausted", zap.String("operation", req.Operation), zap.Error(err))
		return "", ErrUsageLimit
	default:
		outcome = "error"
		s.log.Error("gemini call failed", zap.String("operation", req.Operation), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %v", ErrAIFailed, req.Operation, err)
	}
}

func (s *AIService) callJSON(ctx context.Context, req GenerateRequest, out any) error {
	text, err := s.call(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrAIFailed, req.Operation, err)
	}
	return nil
}

// stripFences removes a ```json ... ``` wrapper some models add around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

var architectureSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"costEstimate": {Type: genai.TypeString, Description: "Estimated total cost in Naira"},
		"timeline":     {Type: genai.TypeString, Description: "Total project duration"},
		"materials": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "List of key materials needed",
		},
		"stages": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"duration":    {Type: genai.TypeString},
				},
			},
		},
		"summary": {Type: genai.TypeString, Description: "A professional summary of the project plan"},
	},
}

// GenerateArchitecturePlan drafts a five-phase lifecycle plan.
func (s *AIService) GenerateArchitecturePlan(ctx context.Context, buildingType, landSize, floors, budget string) (*models.ArchitecturePlan, error) {
	prompt := fmt.Sprintf(`Generate a detailed construction project lifecycle plan for a %s on a %s plot with %s floors. The budget is ₦%s.

The plan MUST strictly follow these 5 specific phases as the 'stages':
1. Project Acquisition & Bidding
2. Project Planning & Design
3. Procurement & Mobilization
4. Construction & Project Execution
5. Project Close-out

For each phase, provide a concise description of activities and estimated duration.
Also provide a total cost estimate in Naira, a total timeline, and a list of major materials needed.`,
		buildingType, landSize, floors, budget)

	var generated models.GeneratedArchitecture
	err := s.callJSON(ctx, GenerateRequest{
		Operation: "architecture_plan",
		Prompt:    prompt,
		Schema:    architectureSchema,
	}, &generated)
	if err != nil {
		return nil, err
	}
	plan := generated.ToPlan()
	return &plan, nil
}

var safetySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"riskScore": {Type: genai.TypeNumber},
		"hazards": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"description":    {Type: genai.TypeString},
					"severity":       {Type: genai.TypeString, Enum: []string{"Low", "Medium", "High"}},
					"recommendation": {Type: genai.TypeString},
				},
			},
		},
		"summary": {Type: genai.TypeString},
	},
}

const safetyPrompt = "Analyze this construction site image for safety hazards. " +
	"Identify PPE violations, structural risks, and housekeeping issues. " +
	"Assign a safety risk score from 0 (Safe) to 100 (High Danger)."

// DetectImageType returns the MIME type of a JPEG or PNG image, or
// ErrInvalidImage for anything else.
func DetectImageType(image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrInvalidImage
	}
	switch mime := http.DetectContentType(image); mime {
	case "image/jpeg", "image/png":
		return mime, nil
	default:
		return "", ErrInvalidImage
	}
}

// AnalyzeSafetyImage asks the model for a hazard assessment of a site photo.
func (s *AIService) AnalyzeSafetyImage(ctx context.Context, image []byte) (*models.SafetyAnalysis, error) {
	mime, err := DetectImageType(image)
	if err != nil {
		return nil, err
	}

	var analysis models.SafetyAnalysis
	err = s.callJSON(ctx, GenerateRequest{
		Operation: "safety_analysis",
		Prompt:    safetyPrompt,
		Image:     image,
		ImageMIME: mime,
		Schema:    safetySchema,
	}, &analysis)
	if err != nil {
		return nil, err
	}
	if analysis.Hazards == nil {
		analysis.Hazards = []models.Hazard{}
	}
	for i := range analysis.Hazards {
		analysis.Hazards[i].Severity = models.NormalizeSeverity(analysis.Hazards[i].Severity)
	}
	analysis.RiskScore = float64(models.ClampRiskScore(analysis.RiskScore))
	return &analysis, nil
}

var allocationSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":      {Type: genai.TypeString},
			"quantity":  {Type: genai.TypeNumber},
			"unit":      {Type: genai.TypeString},
			"threshold": {Type: genai.TypeNumber},
			"status":    {Type: genai.TypeString, Enum: []string{"Good", "Low", "Critical"}},
		},
	},
}

// GenerateResourceAllocation suggests a starting inventory for a stage.
// Returned items carry fresh ids and statuses derived from their numbers.
func (s *AIService) GenerateResourceAllocation(ctx context.Context, projectType, stage, budget string) ([]models.ResourceItem, error) {
	prompt := fmt.Sprintf(`Generate a realistic construction resource inventory list for a '%s' project currently in the '%s' stage with a budget of ₦%s.

Return a list of 5-8 key resources (materials, equipment, or labor) relevant to this specific stage.
For example, if the stage is 'Foundation', include Cement, Sand, Granite, Diggers.
If 'Finishing', include Paint, Tiles, Doors.

Provide realistic quantities and thresholds.`, projectType, stage, budget)

	var items []models.ResourceItem
	err := s.callJSON(ctx, GenerateRequest{
		Operation: "resource_allocation",
		Prompt:    prompt,
		Schema:    allocationSchema,
	}, &items)
	if err != nil {
		return nil, err
	}

	out := make([]models.ResourceItem, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		item.ID = uuid.NewString()
		item.Recompute()
		out = append(out, item)
	}
	return out, nil
}

// ResourceRecommendations returns short stock-planning advice. It never
// fails; a fallback sentence stands in for any error.
func (s *AIService) ResourceRecommendations(ctx context.Context, resources []models.ResourceItem) string {
	payload, err := json.Marshal(resources)
	if err != nil {
		return recommendationsUnavailable
	}
	prompt := fmt.Sprintf("Review this inventory list: %s. Provide a concise 2-sentence recommendation "+
		"for stock planning based on typical construction usage rates.", payload)

	text, err := s.call(ctx, GenerateRequest{Operation: "resource_recommendations", Prompt: prompt})
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return recommendationsUnavailable
	case err != nil:
		return recommendationsLimited
	}
	return strings.TrimSpace(text)
}

var dailyReportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date":             {Type: genai.TypeString},
		"executiveSummary": {Type: genai.TypeString},
		"progressUpdate":   {Type: genai.TypeString},
		"keyIssues":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"recommendations":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
}

// GenerateDailyReport writes a site status report from the workspace's
// stage, progress, safety score and stock levels.
func (s *AIService) GenerateDailyReport(ctx context.Context, w *models.Workspace) (*models.DailyReport, error) {
	critical := strings.Join(models.ResourceNamesByStatus(w.Resources, models.ResourceCritical), ", ")
	low := strings.Join(models.ResourceNamesByStatus(w.Resources, models.ResourceLow), ", ")
	if critical == "" {
		critical = "None"
	}
	if low == "" {
		low = "None"
	}

	prompt := fmt.Sprintf(`Generate a professional Daily Construction Site Report for the project "%s".

Context:
- Stage: %s
- Progress: %d%%
- Safety Score: %d/100
- Critical Resources (Out of stock): %s
- Low Resources: %s

Write an "Executive Summary", a "Progress Update" (inferring reasonable activities for the %s stage), "Key Issues" (based on resources/safety), and "Recommendations".`,
		w.Name, w.Stage, w.Progress, w.SafetyScore, critical, low, w.Stage)

	var report models.DailyReport
	err := s.callJSON(ctx, GenerateRequest{
		Operation: "daily_report",
		Prompt:    prompt,
		Schema:    dailyReportSchema,
	}, &report)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(report.Date) == "" {
		report.Date = s.now().Format("2006-01-02")
	}
	if report.KeyIssues == nil {
		report.KeyIssues = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	return &report, nil
}
