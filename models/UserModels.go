package models

import "time"

type UserRole string

const (
	RoleSiteEngineer   UserRole = "Site Engineer"
	RoleProjectManager UserRole = "Project Manager"
)

type User struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name" example:"Ada Obi"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email" example:"ada@thinklab.ng"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Role         UserRole  `gorm:"column:role;type:varchar(32);not null" json:"role" example:"Site Engineer"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Session is one signed-in device. Its ID is carried in the "sid" claim of
// both tokens.
type Session struct {
	ID                    string    `gorm:"column:session_id;type:varchar(36);primaryKey" json:"session_id"`
	UserID                string    `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	RefreshToken          string    `gorm:"column:refresh_token;type:text;not null" json:"-"`
	IPAddress             string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent             string    `gorm:"column:user_agent" json:"user_agent"`
	ExpiresAt             time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	RefreshTokenExpiresAt time.Time `gorm:"column:refresh_token_expires_at;index;not null" json:"refresh_token_expires_at"`
	CreatedAt             time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// ActivityLog records one mutation made by a user.
type ActivityLog struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id" example:"1"`
	UserID      string    `gorm:"column:user_id;type:varchar(36);index" json:"userId"`
	WorkspaceID string    `gorm:"column:workspace_id;type:varchar(36);index" json:"workspaceId"`
	EventName   string    `gorm:"column:event_name;not null" json:"eventName" example:"resource.updated"`
	Description string    `gorm:"column:description" json:"description" example:"Updated Cement"`
	CreatedAt   time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// Pagination mirrors the paging block of list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}
