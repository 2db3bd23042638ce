package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveResourceStatus(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		threshold float64
		want      ResourceStatus
	}{
		{"well stocked", 300, 200, ResourceGood},
		{"just above threshold", 200.5, 200, ResourceGood},
		{"at threshold", 200, 200, ResourceLow},
		{"between half and threshold", 150, 200, ResourceLow},
		{"at half", 100, 200, ResourceCritical},
		{"empty", 0, 200, ResourceCritical},
		{"no threshold, empty", 0, 0, ResourceCritical},
		{"no threshold, stocked", 1, 0, ResourceGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveResourceStatus(tt.quantity, tt.threshold))
		})
	}
}

func TestResourceRecomputeIgnoresPreviousStatus(t *testing.T) {
	r := ResourceItem{Quantity: 10, Threshold: 100, Status: ResourceGood}
	r.Recompute()
	assert.Equal(t, ResourceCritical, r.Status)
}

func TestSafetyScoreFromRisk(t *testing.T) {
	assert.Equal(t, 100, SafetyScoreFromRisk(0))
	assert.Equal(t, 65, SafetyScoreFromRisk(35))
	assert.Equal(t, 0, SafetyScoreFromRisk(100))
	assert.Equal(t, 0, SafetyScoreFromRisk(140))
	assert.Equal(t, 100, SafetyScoreFromRisk(-20))
	assert.Equal(t, 57, SafetyScoreFromRisk(42.6))
	assert.Equal(t, 100, SafetyScoreFromRisk(math.NaN()))
	assert.Equal(t, 0, SafetyScoreFromRisk(1e20))
	assert.Equal(t, 0, SafetyScoreFromRisk(math.Inf(1)))
	assert.Equal(t, 100, SafetyScoreFromRisk(-1e20))
	assert.Equal(t, 100, SafetyScoreFromRisk(math.Inf(-1)))
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 42, ClampProgress(42))
	assert.Equal(t, 100, ClampProgress(150))
}

func TestWorkspaceStatusToggle(t *testing.T) {
	assert.Equal(t, StatusFinished, StatusUnderConstruction.Toggle())
	assert.Equal(t, StatusUnderConstruction, StatusFinished.Toggle())
	assert.Equal(t, StatusFinished, WorkspaceStatus("").Toggle())
}

func TestComputePortfolioStatistics(t *testing.T) {
	stats := ComputePortfolioStatistics([]Workspace{
		{Status: StatusUnderConstruction, Progress: 10, SafetyScore: 95},
		{Status: StatusUnderConstruction, Progress: 45, SafetyScore: 80, Resources: []ResourceItem{
			{Status: ResourceLow}, {Status: ResourceGood}, {Status: ResourceCritical},
		}},
		{Status: StatusFinished, Progress: 100, SafetyScore: 60},
	})

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 52, stats.AverageProgress)
	assert.Equal(t, SafetyBuckets{Safe: 1, Warning: 1, Critical: 1}, stats.Safety)
	assert.Equal(t, 1, stats.SafetyAlerts)
	assert.Equal(t, 2, stats.LowStockItems)

	assert.Equal(t, PortfolioStatistics{}, ComputePortfolioStatistics(nil))
}

func TestComputeResourceStatisticsDerivesFromQuantities(t *testing.T) {
	stats := ComputeResourceStatistics([]ResourceItem{
		{Quantity: 500, Threshold: 100, Status: ResourceCritical},
		{Quantity: 90, Threshold: 100},
		{Quantity: 10, Threshold: 100},
		{Quantity: 20, Threshold: 100},
	})
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, ResourceStatusCounts{Good: 1, Low: 1, Critical: 2}, stats.ByStatus)
	assert.Equal(t, 3, stats.LowStockCount)
}

func TestGeneratedArchitectureToPlan(t *testing.T) {
	gen := GeneratedArchitecture{
		CostEstimate: "₦85,000,000",
		Timeline:     "14 months",
		Materials:    []string{"Cement", "Granite"},
		Stages: []GeneratedStage{
			{Name: "Project Acquisition & Bidding", Description: "Tender and award", Duration: "4 weeks"},
			{Name: "Project Close-out", Duration: "2 weeks"},
		},
		Summary: "Two-floor duplex.",
	}

	plan := gen.ToPlan()
	require.Len(t, plan.Stages, 2)
	assert.Equal(t, "Project Acquisition & Bidding", plan.Stages[0].Phase)
	assert.Equal(t, []string{"Tender and award"}, plan.Stages[0].Tasks)
	assert.Equal(t, []string{}, plan.Stages[1].Tasks)
	assert.Equal(t, []string{"Cement", "Granite"}, []string(plan.MaterialList))
	require.Len(t, plan.Materials, 2)
	assert.Equal(t, "Granite", plan.Materials[1].Name)
	assert.Equal(t, "Project Summary", plan.Sections[0].Title)
	assert.Len(t, plan.Sections, 2)
}

func TestEmptyPlanEncodesEmptyArrays(t *testing.T) {
	var plan ArchitecturePlan
	plan.Normalize()
	raw, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sections":[]`)
	assert.Contains(t, string(raw), `"stages":[]`)
}

func TestSafetyAnalysisToReport(t *testing.T) {
	report := SafetyAnalysis{
		RiskScore: 120,
		Hazards: []Hazard{
			{Description: "Open trench", Severity: "Extreme"},
			{Description: "No helmets", Severity: SeverityHigh},
		},
		Summary: "Unsafe",
	}.ToReport()

	assert.Equal(t, 100, report.RiskScore)
	assert.Equal(t, SeverityMedium, report.Hazards[0].Severity)
	assert.Equal(t, SeverityHigh, report.Hazards[1].Severity)

	assert.Equal(t, 100, SafetyAnalysis{RiskScore: 1e20}.ToReport().RiskScore)
	assert.Equal(t, 0, SafetyAnalysis{RiskScore: -1e20}.ToReport().RiskScore)
}
