package models

type SignupRequest struct {
	Name     string   `json:"name" binding:"required,max=120" example:"Ada Obi"`
	Email    string   `json:"email" binding:"required,email" example:"ada@thinklab.ng"`
	Password string   `json:"password" binding:"required,min=6" example:"secret1"`
	Role     UserRole `json:"role" binding:"omitempty,oneof='Site Engineer' 'Project Manager'" example:"Site Engineer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@thinklab.ng"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	Token            string `json:"token"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresAt        int64  `json:"expiresAt"`
	RefreshExpiresAt int64  `json:"refreshExpiresAt"`
	User             User   `json:"user"`
}

type CreateWorkspaceRequest struct {
	Name     string           `json:"name" binding:"required,max=200" example:"Lekki Towers"`
	Location string           `json:"location" binding:"max=300" example:"Lekki Phase 1, Lagos"`
	Stage    string           `json:"stage" example:"Foundation"`
	Budget   string           `json:"budget" example:"250000000"`
	Type     string           `json:"type" example:"Residential"`
	Status   *WorkspaceStatus `json:"status,omitempty" binding:"omitempty,oneof='Under Construction' 'Finished'"`
	Progress *int             `json:"progress,omitempty"`
}

// UpdateWorkspaceRequest applies only the fields that are present.
type UpdateWorkspaceRequest struct {
	Name     *string          `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Location *string          `json:"location,omitempty" binding:"omitempty,max=300"`
	Stage    *string          `json:"stage,omitempty"`
	Budget   *string          `json:"budget,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Status   *WorkspaceStatus `json:"status,omitempty" binding:"omitempty,oneof='Under Construction' 'Finished'"`
	Progress *int             `json:"progress,omitempty"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required" example:"60"`
}

type ResourceRequest struct {
	Name      string   `json:"name" binding:"required,max=200" example:"Cement"`
	Quantity  *float64 `json:"quantity" binding:"required,gte=0" example:"120"`
	Unit      string   `json:"unit" binding:"max=50" example:"bags"`
	Threshold *float64 `json:"threshold" binding:"required,gte=0" example:"200"`
}

// UpdateResourceRequest applies only the fields that are present. Any status
// sent by a client is ignored.
type UpdateResourceRequest struct {
	Name      *string  `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Quantity  *float64 `json:"quantity,omitempty" binding:"omitempty,gte=0"`
	Unit      *string  `json:"unit,omitempty" binding:"omitempty,max=50"`
	Threshold *float64 `json:"threshold,omitempty" binding:"omitempty,gte=0"`
}

type QuantityRequest struct {
	Quantity *float64 `json:"quantity" binding:"required,gte=0" example:"80"`
}

type BulkResourcesRequest struct {
	Resources []ResourceRequest `json:"resources" binding:"dive"`
}

type AllocateResourcesRequest struct {
	ProjectType string `json:"projectType" example:"Residential"`
	Stage       string `json:"stage" example:"Foundation"`
	Budget      string `json:"budget" example:"250000000"`
	// Apply replaces the workspace inventory with the suggestion.
	Apply bool `json:"apply"`
}

type ArchitecturePlanRequest struct {
	Sections     []PlanSection  `json:"sections" binding:"dive"`
	Materials    []PlanMaterial `json:"materials" binding:"dive"`
	Stages       []PlanStage    `json:"stages" binding:"dive"`
	MaterialList []string       `json:"materialList"`
	Summary      string         `json:"summary"`
	CostEstimate string         `json:"costEstimate"`
	Timeline     string         `json:"timeline"`
}

type GenerateArchitectureRequest struct {
	BuildingType string `json:"buildingType" binding:"required" example:"Duplex"`
	LandSize     string `json:"landSize" binding:"required" example:"600sqm"`
	Floors       string `json:"floors" binding:"required" example:"2"`
	Budget       string `json:"budget" binding:"required" example:"85000000"`
	Save         bool   `json:"save"`
}

type SafetyReportRequest struct {
	RiskScore *float64 `json:"riskScore" binding:"required" example:"35"`
	Hazards   []Hazard `json:"hazards" binding:"dive"`
	Summary   string   `json:"summary"`
}
