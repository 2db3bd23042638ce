package models

import (
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type HazardSeverity string

const (
	SeverityLow    HazardSeverity = "Low"
	SeverityMedium HazardSeverity = "Medium"
	SeverityHigh   HazardSeverity = "High"
)

// NormalizeSeverity matches s case-insensitively and maps unknown
// severities to Medium.
func NormalizeSeverity(s HazardSeverity) HazardSeverity {
	for _, known := range []HazardSeverity{SeverityLow, SeverityMedium, SeverityHigh} {
		if strings.EqualFold(strings.TrimSpace(string(s)), string(known)) {
			return known
		}
	}
	return SeverityMedium
}

type Hazard struct {
	Description    string         `json:"description" binding:"required" example:"Worker on scaffold without harness"`
	Severity       HazardSeverity `json:"severity" example:"High"`
	Recommendation string         `json:"recommendation" example:"Enforce fall arrest harness above 2m"`
}

// SafetyReport is an immutable hazard assessment appended to a workspace.
type SafetyReport struct {
	ID          string                      `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string                      `gorm:"column:workspace_id;type:varchar(36);index;not null" json:"workspaceId"`
	Date        time.Time                   `gorm:"column:date;not null" json:"date"`
	RiskScore   int                         `gorm:"column:risk_score;not null" json:"riskScore" example:"40"`
	Hazards     datatypes.JSONSlice[Hazard] `gorm:"column:hazards" json:"hazards"`
	Summary     string                      `gorm:"column:summary;type:text" json:"summary"`
	CreatedAt   time.Time                   `gorm:"column:created_at" json:"-"`
}

func (SafetyReport) TableName() string {
	return "safety_reports"
}

// ClampRiskScore rounds a model-provided score and limits it to [0, 100].
func ClampRiskScore(risk float64) int {
	switch {
	case math.IsNaN(risk), risk <= 0:
		return 0
	case risk >= 100:
		return 100
	}
	return int(math.Round(risk))
}

// SafetyScoreFromRisk is 100 minus the clamped risk score.
func SafetyScoreFromRisk(risk float64) int {
	return 100 - ClampRiskScore(risk)
}

// SafetyAnalysis is the raw hazard assessment returned by the model.
type SafetyAnalysis struct {
	RiskScore float64  `json:"riskScore"`
	Hazards   []Hazard `json:"hazards"`
	Summary   string   `json:"summary"`
}

func (a SafetyAnalysis) ToReport() SafetyReport {
	hazards := make(datatypes.JSONSlice[Hazard], 0, len(a.Hazards))
	for _, h := range a.Hazards {
		h.Severity = NormalizeSeverity(h.Severity)
		hazards = append(hazards, h)
	}
	return SafetyReport{
		RiskScore: ClampRiskScore(a.RiskScore),
		Hazards:   hazards,
		Summary:   a.Summary,
	}
}
