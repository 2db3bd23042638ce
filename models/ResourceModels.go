package models

import "time"

type ResourceStatus string

const (
	ResourceGood     ResourceStatus = "Good"
	ResourceLow      ResourceStatus = "Low"
	ResourceCritical ResourceStatus = "Critical"
)

// ResourceItem is one inventory line of a workspace. Status is always derived
// from Quantity and Threshold.
type ResourceItem struct {
	ID          string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string         `gorm:"column:workspace_id;type:varchar(36);index;not null" json:"-"`
	Name        string         `gorm:"column:name;not null" json:"name" example:"Cement"`
	Quantity    float64        `gorm:"column:quantity;not null" json:"quantity" example:"120"`
	Unit        string         `gorm:"column:unit" json:"unit" example:"bags"`
	Threshold   float64        `gorm:"column:threshold;not null" json:"threshold" example:"200"`
	Status      ResourceStatus `gorm:"column:status;type:varchar(16);not null" json:"status" example:"Low"`
	Position    int            `gorm:"column:position;not null;default:0" json:"-"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"-"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"-"`
}

func (ResourceItem) TableName() string {
	return "resource_items"
}

// DeriveResourceStatus: at or below half the threshold is Critical, at or
// below the threshold is Low, anything above is Good.
func DeriveResourceStatus(quantity, threshold float64) ResourceStatus {
	switch {
	case quantity <= threshold*0.5:
		return ResourceCritical
	case quantity <= threshold:
		return ResourceLow
	default:
		return ResourceGood
	}
}

// Recompute overwrites Status from the current quantity and threshold.
func (r *ResourceItem) Recompute() {
	r.Status = DeriveResourceStatus(r.Quantity, r.Threshold)
}

type ResourceStatusCounts struct {
	Good     int `json:"good"`
	Low      int `json:"low"`
	Critical int `json:"critical"`
}

type ResourceStatistics struct {
	Total         int                  `json:"total"`
	ByStatus      ResourceStatusCounts `json:"byStatus"`
	LowStockCount int                  `json:"lowStockCount"`
}

func ComputeResourceStatistics(items []ResourceItem) ResourceStatistics {
	stats := ResourceStatistics{Total: len(items)}
	for _, r := range items {
		switch DeriveResourceStatus(r.Quantity, r.Threshold) {
		case ResourceCritical:
			stats.ByStatus.Critical++
		case ResourceLow:
			stats.ByStatus.Low++
		default:
			stats.ByStatus.Good++
		}
	}
	stats.LowStockCount = stats.ByStatus.Low + stats.ByStatus.Critical
	return stats
}

// ResourceNamesByStatus lists the names of items currently in status s.
func ResourceNamesByStatus(items []ResourceItem, s ResourceStatus) []string {
	var names []string
	for _, r := range items {
		if r.Status == s {
			names = append(names, r.Name)
		}
	}
	return names
}
