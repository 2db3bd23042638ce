package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteguard/models"
	"siteguard/utils"
)

// GormRepository stores everything in PostgreSQL through gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Driver() string { return "postgres" }

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func orderResources(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC, created_at ASC")
}

func orderReports(tx *gorm.DB) *gorm.DB {
	return tx.Order("date DESC, created_at DESC")
}

// ---- users ----

func (r *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ---- sessions ----

func (r *GormRepository) SaveSession(ctx context.Context, session *models.Session) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Save(session).Error)
}

func (r *GormRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var session models.Session
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *GormRepository) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return affected(r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.Session{}))
}

func (r *GormRepository) CleanupExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := utils.GetSlowQueryContext(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).Where("refresh_token_expires_at < ?", before).Delete(&models.Session{})
	return res.RowsAffected, translate(res.Error)
}

// ---- workspaces ----

func (r *GormRepository) ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var out []models.Workspace
	err := r.db.WithContext(ctx).
		Preload("Resources", orderResources).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

func (r *GormRepository) ListAllWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	ctx, cancel := utils.GetSlowQueryContext(ctx)
	defer cancel()
	var out []models.Workspace
	err := r.db.WithContext(ctx).
		Preload("Resources", orderResources).
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *GormRepository) GetWorkspace(ctx context.Context, userID, id string) (*models.Workspace, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var w models.Workspace
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *GormRepository) GetWorkspaceDetails(ctx context.Context, userID, id string) (*models.Workspace, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var w models.Workspace
	err := r.db.WithContext(ctx).
		Preload("Resources", orderResources).
		Preload("ArchitecturePlan").
		Preload("SafetyReports", orderReports).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *GormRepository) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Omit("ArchitecturePlan", "SafetyReports").Create(workspace).Error)
}

var workspaceColumns = []string{
	"name", "location", "stage", "budget", "type", "status",
	"progress", "safety_score", "last_updated", "updated_at",
}

func (r *GormRepository) UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).
		Model(workspace).
		Where("user_id = ?", workspace.UserID).
		Select(workspaceColumns).
		Updates(workspace)
	return affected(res)
}

func (r *GormRepository) TouchWorkspace(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ?", id).
		Update("last_updated", at)
	return affected(res)
}

func (r *GormRepository) DeleteWorkspace(ctx context.Context, userID, id string) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := affected(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Workspace{})); err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.ResourceItem{}).Error; err != nil {
			return fmt.Errorf("delete resources: %w", err)
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.ArchitecturePlan{}).Error; err != nil {
			return fmt.Errorf("delete architecture plan: %w", err)
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.SafetyReport{}).Error; err != nil {
			return fmt.Errorf("delete safety reports: %w", err)
		}
		return nil
	})
}

// ---- resources ----

func (r *GormRepository) ListResources(ctx context.Context, workspaceID string) ([]models.ResourceItem, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var out []models.ResourceItem
	err := orderResources(r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)).Find(&out).Error
	return out, translate(err)
}

func (r *GormRepository) GetResource(ctx context.Context, workspaceID, id string) (*models.ResourceItem, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var item models.ResourceItem
	if err := r.db.WithContext(ctx).Where("id = ? AND workspace_id = ?", id, workspaceID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *GormRepository) CreateResource(ctx context.Context, item *models.ResourceItem) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *GormRepository) UpdateResource(ctx context.Context, item *models.ResourceItem) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).
		Model(item).
		Where("workspace_id = ?", item.WorkspaceID).
		Select("name", "quantity", "unit", "threshold", "status", "updated_at").
		Updates(item)
	return affected(res)
}

func (r *GormRepository) DeleteResource(ctx context.Context, workspaceID, id string) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return affected(r.db.WithContext(ctx).Where("id = ? AND workspace_id = ?", id, workspaceID).Delete(&models.ResourceItem{}))
}

func (r *GormRepository) ReplaceResources(ctx context.Context, workspaceID string, items []models.ResourceItem) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.ResourceItem{}).Error; err != nil {
			return fmt.Errorf("clear resources: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		return translate(tx.Create(&items).Error)
	})
}

const reconcileStatusSQL = `
UPDATE resource_items SET status = derived.status, updated_at = NOW()
FROM (
	SELECT id, CASE
		WHEN quantity <= threshold * 0.5 THEN 'Critical'
		WHEN quantity <= threshold THEN 'Low'
		ELSE 'Good'
	END AS status
	FROM resource_items
) AS derived
WHERE resource_items.id = derived.id AND resource_items.status <> derived.status`

func (r *GormRepository) ReconcileResourceStatuses(ctx context.Context) (int64, error) {
	ctx, cancel := utils.GetSlowQueryContext(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).Exec(reconcileStatusSQL)
	return res.RowsAffected, translate(res.Error)
}

// ---- architecture ----

func (r *GormRepository) GetArchitecturePlan(ctx context.Context, workspaceID string) (*models.ArchitecturePlan, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var plan models.ArchitecturePlan
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&plan).Error; err != nil {
		return nil, translate(err)
	}
	plan.Normalize()
	return &plan, nil
}

func (r *GormRepository) SaveArchitecturePlan(ctx context.Context, plan *models.ArchitecturePlan) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sections", "materials", "stages", "material_list",
			"summary", "cost_estimate", "timeline", "updated_at",
		}),
	}).Create(plan).Error
	return translate(err)
}

func (r *GormRepository) DeleteArchitecturePlan(ctx context.Context, workspaceID string) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return affected(r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Delete(&models.ArchitecturePlan{}))
}

// ---- safety reports ----

func (r *GormRepository) ListSafetyReports(ctx context.Context, workspaceID string) ([]models.SafetyReport, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var out []models.SafetyReport
	err := orderReports(r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)).Find(&out).Error
	return out, translate(err)
}

func (r *GormRepository) GetSafetyReport(ctx context.Context, workspaceID, id string) (*models.SafetyReport, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var report models.SafetyReport
	if err := r.db.WithContext(ctx).Where("id = ? AND workspace_id = ?", id, workspaceID).First(&report).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *GormRepository) AppendSafetyReport(ctx context.Context, report *models.SafetyReport, safetyScore int, at time.Time) error {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("insert safety report: %w", translate(err))
		}
		res := tx.Model(&models.Workspace{}).
			Where("id = ?", report.WorkspaceID).
			Updates(map[string]interface{}{
				"safety_score": safetyScore,
				"last_updated": at,
			})
		return affected(res)
	})
}

// ---- activity logs ----

func (r *GormRepository) AddActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *GormRepository) ListActivityLogs(ctx context.Context, userID, workspaceID string, limit, offset int) ([]models.ActivityLog, int64, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()

	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Where("user_id = ?", userID)
		if workspaceID != "" {
			q = q.Where("workspace_id = ?", workspaceID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var logs []models.ActivityLog
	err := scoped().Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, translate(err)
}
