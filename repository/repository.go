package repository

import (
	"context"
	"errors"
	"time"

	"siteguard/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
)

// Repository is the persistence boundary of the service. Workspace-scoped
// reads take the owner's user id so that other users' rows are never visible.
type Repository interface {
	Driver() string
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// CleanupExpiredSessions removes sessions whose refresh token expired before the given time.
	CleanupExpiredSessions(ctx context.Context, before time.Time) (int64, error)

	// ListWorkspaces returns the owner's workspaces, newest first, with resources loaded.
	ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error)
	// ListAllWorkspaces returns every live workspace with resources loaded.
	ListAllWorkspaces(ctx context.Context) ([]models.Workspace, error)
	// GetWorkspace returns the workspace row without children.
	GetWorkspace(ctx context.Context, userID, id string) (*models.Workspace, error)
	// GetWorkspaceDetails returns the workspace with resources, plan and reports.
	GetWorkspaceDetails(ctx context.Context, userID, id string) (*models.Workspace, error)
	CreateWorkspace(ctx context.Context, workspace *models.Workspace) error
	// UpdateWorkspace writes the scalar columns of workspace. Children are untouched.
	UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error
	TouchWorkspace(ctx context.Context, id string, at time.Time) error
	// DeleteWorkspace removes the workspace and everything it owns.
	DeleteWorkspace(ctx context.Context, userID, id string) error

	ListResources(ctx context.Context, workspaceID string) ([]models.ResourceItem, error)
	GetResource(ctx context.Context, workspaceID, id string) (*models.ResourceItem, error)
	CreateResource(ctx context.Context, item *models.ResourceItem) error
	UpdateResource(ctx context.Context, item *models.ResourceItem) error
	DeleteResource(ctx context.Context, workspaceID, id string) error
	// ReplaceResources swaps the whole inventory of a workspace in one step.
	ReplaceResources(ctx context.Context, workspaceID string, items []models.ResourceItem) error
	// ReconcileResourceStatuses rewrites every stored status that disagrees
	// with its quantity and threshold and returns how many rows changed.
	ReconcileResourceStatuses(ctx context.Context) (int64, error)

	GetArchitecturePlan(ctx context.Context, workspaceID string) (*models.ArchitecturePlan, error)
	// SaveArchitecturePlan inserts or overwrites the plan of plan.WorkspaceID.
	SaveArchitecturePlan(ctx context.Context, plan *models.ArchitecturePlan) error
	DeleteArchitecturePlan(ctx context.Context, workspaceID string) error

	// ListSafetyReports returns reports newest first.
	ListSafetyReports(ctx context.Context, workspaceID string) ([]models.SafetyReport, error)
	GetSafetyReport(ctx context.Context, workspaceID, id string) (*models.SafetyReport, error)
	// AppendSafetyReport stores report and sets the workspace safety score in
	// the same transaction.
	AppendSafetyReport(ctx context.Context, report *models.SafetyReport, safetyScore int, at time.Time) error

	AddActivityLog(ctx context.Context, entry *models.ActivityLog) error
	// ListActivityLogs pages through a user's log, newest first. An empty
	// workspaceID lists every workspace.
	ListActivityLogs(ctx context.Context, userID, workspaceID string, limit, offset int) ([]models.ActivityLog, int64, error)
}
