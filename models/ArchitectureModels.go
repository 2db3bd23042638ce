package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type PlanSection struct {
	Title       string `json:"title" binding:"required" example:"Executive Summary"`
	Description string `json:"description" example:"Three-floor residential block on a 600sqm plot."`
}

type PlanMaterial struct {
	Name          string `json:"name" binding:"required" example:"Reinforcement steel"`
	Quantity      string `json:"quantity" example:"12 tonnes"`
	Specification string `json:"specification" example:"Y16 high yield"`
}

type PlanStage struct {
	Phase    string   `json:"phase" binding:"required" example:"Procurement & Mobilization"`
	Duration string   `json:"duration" example:"6 weeks"`
	Tasks    []string `json:"tasks"`
}

// ArchitecturePlan is the single execution plan attached to a workspace.
// Saving a new plan replaces the previous one.
type ArchitecturePlan struct {
	ID           string                            `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	WorkspaceID  string                            `gorm:"column:workspace_id;type:varchar(36);uniqueIndex;not null" json:"workspaceId"`
	Sections     datatypes.JSONSlice[PlanSection]  `gorm:"column:sections" json:"sections"`
	Materials    datatypes.JSONSlice[PlanMaterial] `gorm:"column:materials" json:"materials"`
	Stages       datatypes.JSONSlice[PlanStage]    `gorm:"column:stages" json:"stages"`
	MaterialList pq.StringArray                    `gorm:"column:material_list;type:text[]" json:"materialList,omitempty"`
	Summary      string                            `gorm:"column:summary;type:text" json:"summary"`
	CostEstimate string                            `gorm:"column:cost_estimate" json:"costEstimate,omitempty"`
	Timeline     string                            `gorm:"column:timeline" json:"timeline,omitempty"`
	CreatedAt    time.Time                         `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time                         `gorm:"column:updated_at" json:"updatedAt"`
}

func (ArchitecturePlan) TableName() string {
	return "architecture_plans"
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (p *ArchitecturePlan) Normalize() {
	if p.Sections == nil {
		p.Sections = datatypes.JSONSlice[PlanSection]{}
	}
	if p.Materials == nil {
		p.Materials = datatypes.JSONSlice[PlanMaterial]{}
	}
	if p.Stages == nil {
		p.Stages = datatypes.JSONSlice[PlanStage]{}
	}
	for i := range p.Stages {
		if p.Stages[i].Tasks == nil {
			p.Stages[i].Tasks = []string{}
		}
	}
}

// GeneratedArchitecture is the raw plan shape returned by the model.
type GeneratedArchitecture struct {
	CostEstimate string           `json:"costEstimate"`
	Timeline     string           `json:"timeline"`
	Materials    []string         `json:"materials"`
	Stages       []GeneratedStage `json:"stages"`
	Summary      string           `json:"summary"`
}

type GeneratedStage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

// ToPlan converts a generated plan into the stored sections/materials/stages form.
func (g GeneratedArchitecture) ToPlan() ArchitecturePlan {
	plan := ArchitecturePlan{
		Summary:      g.Summary,
		CostEstimate: g.CostEstimate,
		Timeline:     g.Timeline,
		MaterialList: pq.StringArray(append([]string{}, g.Materials...)),
	}
	plan.Sections = datatypes.JSONSlice[PlanSection]{{
		Title:       "Project Summary",
		Description: g.Summary,
	}}
	if g.CostEstimate != "" || g.Timeline != "" {
		plan.Sections = append(plan.Sections, PlanSection{
			Title:       "Budget & Timeline",
			Description: "Estimated cost: " + g.CostEstimate + ". Timeline: " + g.Timeline + ".",
		})
	}
	for _, m := range g.Materials {
		plan.Materials = append(plan.Materials, PlanMaterial{Name: m})
	}
	for _, s := range g.Stages {
		tasks := []string{}
		if s.Description != "" {
			tasks = append(tasks, s.Description)
		}
		plan.Stages = append(plan.Stages, PlanStage{
			Phase:    s.Name,
			Duration: s.Duration,
			Tasks:    tasks,
		})
	}
	plan.Normalize()
	return plan
}
