package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type WorkspaceStatus string

const (
	StatusUnderConstruction WorkspaceStatus = "Under Construction"
	StatusFinished          WorkspaceStatus = "Finished"
)

// Toggle flips between Under Construction and Finished. Unknown values are
// treated as Under Construction.
func (s WorkspaceStatus) Toggle() WorkspaceStatus {
	if s == StatusFinished {
		return StatusUnderConstruction
	}
	return StatusFinished
}

func (s WorkspaceStatus) Valid() bool {
	return s == StatusUnderConstruction || s == StatusFinished
}

// Workspace is a tracked construction site owned by one user.
type Workspace struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id" example:"5b8e2f9c-2a8f-4d1e-9f59-0b7f3c1d2e4a"`
	UserID      string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"-"`
	Name        string          `gorm:"column:name;not null" json:"name" example:"Lekki Towers"`
	Location    string          `gorm:"column:location" json:"location" example:"Lekki Phase 1, Lagos"`
	Stage       string          `gorm:"column:stage" json:"stage" example:"Foundation"`
	Budget      string          `gorm:"column:budget" json:"budget,omitempty" example:"250000000"`
	Type        string          `gorm:"column:type" json:"type,omitempty" example:"Residential"`
	Status      WorkspaceStatus `gorm:"column:status;type:varchar(32);not null" json:"status" example:"Under Construction"`
	Progress    int             `gorm:"column:progress;not null" json:"progress" example:"35"`
	SafetyScore int             `gorm:"column:safety_score;not null" json:"safetyScore" example:"100"`
	LastUpdated time.Time       `gorm:"column:last_updated;not null" json:"lastUpdated"`

	Resources        []ResourceItem    `gorm:"foreignKey:WorkspaceID" json:"resources"`
	ArchitecturePlan *ArchitecturePlan `gorm:"foreignKey:WorkspaceID" json:"architecturePlan,omitempty"`
	SafetyReports    []SafetyReport    `gorm:"foreignKey:WorkspaceID" json:"safetyReports,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// Touch bumps LastUpdated.
func (w *Workspace) Touch(now time.Time) {
	w.LastUpdated = now
}

// ClampProgress limits p to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Safety score buckets used by the dashboard.
const (
	SafeScoreMin    = 90
	WarningScoreMin = 75
)

type SafetyBuckets struct {
	Safe     int `json:"safe"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// PortfolioStatistics summarises every workspace a user owns.
type PortfolioStatistics struct {
	Total           int           `json:"total"`
	Active          int           `json:"active"`
	Completed       int           `json:"completed"`
	AverageProgress int           `json:"averageProgress"`
	SafetyAlerts    int           `json:"safetyAlerts"`
	Safety          SafetyBuckets `json:"safety"`
	LowStockItems   int           `json:"lowStockItems"`
}

func ComputePortfolioStatistics(workspaces []Workspace) PortfolioStatistics {
	var stats PortfolioStatistics
	stats.Total = len(workspaces)
	if stats.Total == 0 {
		return stats
	}

	progressSum := 0
	for _, w := range workspaces {
		if w.Status == StatusFinished {
			stats.Completed++
		} else {
			stats.Active++
		}
		progressSum += w.Progress

		switch {
		case w.SafetyScore >= SafeScoreMin:
			stats.Safety.Safe++
		case w.SafetyScore >= WarningScoreMin:
			stats.Safety.Warning++
		default:
			stats.Safety.Critical++
		}

		for _, r := range w.Resources {
			if r.Status != ResourceGood {
				stats.LowStockItems++
			}
		}
	}
	stats.SafetyAlerts = stats.Safety.Critical
	stats.AverageProgress = int(math.Round(float64(progressSum) / float64(stats.Total)))
	return stats
}
