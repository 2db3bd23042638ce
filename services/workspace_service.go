package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siteguard/models"
	"siteguard/repository"
)

// Result is the outcome of a mutation: the new state plus the client query
// keys it invalidated.
type Result[T any] struct {
	Data       T
	Invalidate []models.QueryKey
}

// WorkspaceService owns workspace, resource, architecture and safety report
// state and keeps every derived field consistent.
type WorkspaceService struct {
	repo   repository.Repository
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewWorkspaceService(repo repository.Repository, events EventPublisher, log *zap.Logger) *WorkspaceService {
	if events == nil {
		events = NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkspaceService{
		repo:   repo,
		events: events,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// mutated records the activity entry and publishes the invalidation event.
// Neither failure undoes the mutation.
func (s *WorkspaceService) mutated(ctx context.Context, userID, workspaceID, event, description string, keys []models.QueryKey) {
	now := s.now()
	entry := &models.ActivityLog{
		UserID:      userID,
		WorkspaceID: workspaceID,
		EventName:   event,
		Description: description,
		CreatedAt:   now,
	}
	if err := s.repo.AddActivityLog(ctx, entry); err != nil {
		s.log.Warn("activity log write failed", zap.String("event", event), zap.Error(err))
	}
	err := s.events.Publish(ctx, Event{
		Type:        event,
		UserID:      userID,
		WorkspaceID: workspaceID,
		Keys:        keys,
		At:          now,
	})
	if err != nil {
		s.log.Warn("invalidation publish failed", zap.String("event", event), zap.Error(err))
	}
}

func (s *WorkspaceService) owned(ctx context.Context, userID, id string) (*models.Workspace, error) {
	w, err := s.repo.GetWorkspace(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", id, err)
	}
	return w, nil
}

func (s *WorkspaceService) touch(ctx context.Context, id string) {
	if err := s.repo.TouchWorkspace(ctx, id, s.now()); err != nil {
		s.log.Warn("workspace touch failed", zap.String("workspace_id", id), zap.Error(err))
	}
}

// ---- workspaces ----

func (s *WorkspaceService) ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error) {
	list, err := s.repo.ListWorkspaces(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if list == nil {
		list = []models.Workspace{}
	}
	return list, nil
}

// GetWorkspace returns the workspace with its resources, plan and reports.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, userID, id string) (*models.Workspace, error) {
	w, err := s.repo.GetWorkspaceDetails(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", id, err)
	}
	if w.Resources == nil {
		w.Resources = []models.ResourceItem{}
	}
	if w.SafetyReports == nil {
		w.SafetyReports = []models.SafetyReport{}
	}
	if w.ArchitecturePlan != nil {
		w.ArchitecturePlan.Normalize()
	}
	return w, nil
}

func (s *WorkspaceService) CreateWorkspace(ctx context.Context, userID string, req models.CreateWorkspaceRequest) (Result[models.Workspace], error) {
	now := s.now()
	w := models.Workspace{
		ID:          s.newID(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Stage:       strings.TrimSpace(req.Stage),
		Budget:      strings.TrimSpace(req.Budget),
		Type:        strings.TrimSpace(req.Type),
		Status:      models.StatusUnderConstruction,
		SafetyScore: 100,
		LastUpdated: now,
		Resources:   []models.ResourceItem{},
	}
	if req.Status != nil {
		w.Status = *req.Status
	}
	if w.Status == models.StatusFinished {
		if req.Progress != nil && models.ClampProgress(*req.Progress) != 100 {
			return Result[models.Workspace]{}, ErrWorkspaceFinished
		}
		w.Progress = 100
	} else if req.Progress != nil {
		w.Progress = models.ClampProgress(*req.Progress)
	}

	if err := s.repo.CreateWorkspace(ctx, &w); err != nil {
		return Result[models.Workspace]{}, fmt.Errorf("create workspace: %w", err)
	}

	keys := WorkspaceKeys(w.ID)
	s.mutated(ctx, userID, w.ID, "workspace.created", "Created workspace "+w.Name, keys)
	return Result[models.Workspace]{Data: w, Invalidate: keys}, nil
}

func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, userID, id string, req models.UpdateWorkspaceRequest) (Result[models.Workspace], error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return Result[models.Workspace]{}, err
	}

	if req.Name != nil {
		w.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		w.Location = strings.TrimSpace(*req.Location)
	}
	if req.Stage != nil {
		w.Stage = strings.TrimSpace(*req.Stage)
	}
	if req.Budget != nil {
		w.Budget = strings.TrimSpace(*req.Budget)
	}
	if req.Type != nil {
		w.Type = strings.TrimSpace(*req.Type)
	}
	if req.Status != nil {
		w.Status = *req.Status
	}
	if w.Status == models.StatusFinished {
		if req.Progress != nil && models.ClampProgress(*req.Progress) != 100 {
			return Result[models.Workspace]{}, ErrWorkspaceFinished
		}
		w.Progress = 100
	} else if req.Progress != nil {
		w.Progress = models.ClampProgress(*req.Progress)
	}
	w.Touch(s.now())

	return s.saveWorkspace(ctx, w, "workspace.updated", "Updated workspace "+w.Name)
}

// UpdateProgress sets progress, clamped to [0, 100]. Finished workspaces
// reject the change.
func (s *WorkspaceService) UpdateProgress(ctx context.Context, userID, id string, progress int) (Result[models.Workspace], error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return Result[models.Workspace]{}, err
	}
	if w.Status == models.StatusFinished {
		return Result[models.Workspace]{}, ErrWorkspaceFinished
	}
	w.Progress = models.ClampProgress(progress)
	w.Touch(s.now())
	return s.saveWorkspace(ctx, w, "workspace.progress", fmt.Sprintf("Progress set to %d%%", w.Progress))
}

// ToggleStatus flips the workspace between Under Construction and Finished.
// Finishing a workspace completes its progress.
func (s *WorkspaceService) ToggleStatus(ctx context.Context, userID, id string) (Result[models.Workspace], error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return Result[models.Workspace]{}, err
	}
	w.Status = w.Status.Toggle()
	if w.Status == models.StatusFinished {
		w.Progress = 100
	}
	w.Touch(s.now())
	return s.saveWorkspace(ctx, w, "workspace.status", "Status changed to "+string(w.Status))
}

func (s *WorkspaceService) saveWorkspace(ctx context.Context, w *models.Workspace, event, description string) (Result[models.Workspace], error) {
	if err := s.repo.UpdateWorkspace(ctx, w); err != nil {
		return Result[models.Workspace]{}, fmt.Errorf("update workspace %s: %w", w.ID, err)
	}
	keys := WorkspaceKeys(w.ID)
	s.mutated(ctx, w.UserID, w.ID, event, description, keys)

	full, err := s.GetWorkspace(ctx, w.UserID, w.ID)
	if err != nil {
		return Result[models.Workspace]{}, err
	}
	return Result[models.Workspace]{Data: *full, Invalidate: keys}, nil
}

func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, userID, id string) (Result[models.DeletedRef], error) {
	if err := s.repo.DeleteWorkspace(ctx, userID, id); err != nil {
		return Result[models.DeletedRef]{}, fmt.Errorf("delete workspace %s: %w", id, err)
	}
	keys := WorkspaceKeys(id)
	s.mutated(ctx, userID, id, "workspace.deleted", "Deleted workspace", keys)
	return Result[models.DeletedRef]{Data: models.DeletedRef{ID: id, Deleted: true}, Invalidate: keys}, nil
}

func (s *WorkspaceService) PortfolioStatistics(ctx context.Context, userID string) (models.PortfolioStatistics, error) {
	list, err := s.repo.ListWorkspaces(ctx, userID)
	if err != nil {
		return models.PortfolioStatistics{}, fmt.Errorf("list workspaces: %w", err)
	}
	return models.ComputePortfolioStatistics(list), nil
}

// ---- resources ----

func (s *WorkspaceService) ListResources(ctx context.Context, userID, workspaceID string) ([]models.ResourceItem, error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListResources(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if items == nil {
		items = []models.ResourceItem{}
	}
	return items, nil
}

func (s *WorkspaceService) GetResource(ctx context.Context, userID, workspaceID, resourceID string) (*models.ResourceItem, error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetResource(ctx, workspaceID, resourceID)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", resourceID, err)
	}
	return item, nil
}

func (s *WorkspaceService) ResourceStatistics(ctx context.Context, userID, workspaceID string) (models.ResourceStatistics, error) {
	items, err := s.ListResources(ctx, userID, workspaceID)
	if err != nil {
		return models.ResourceStatistics{}, err
	}
	return models.ComputeResourceStatistics(items), nil
}

func (s *WorkspaceService) AddResource(ctx context.Context, userID, workspaceID string, req models.ResourceRequest) (Result[models.ResourceItem], error) {
	existing, err := s.ListResources(ctx, userID, workspaceID)
	if err != nil {
		return Result[models.ResourceItem]{}, err
	}

	item := resourceFromRequest(req)
	item.ID = s.newID()
	item.WorkspaceID = workspaceID
	item.Position = len(existing)
	if err := s.repo.CreateResource(ctx, &item); err != nil {
		return Result[models.ResourceItem]{}, fmt.Errorf("create resource: %w", err)
	}
	s.touch(ctx, workspaceID)

	keys := ResourceKeys(workspaceID, "")
	s.mutated(ctx, userID, workspaceID, "resource.created", "Added "+item.Name, keys)
	return Result[models.ResourceItem]{Data: item, Invalidate: keys}, nil
}

func (s *WorkspaceService) UpdateResource(ctx context.Context, userID, workspaceID, resourceID string, req models.UpdateResourceRequest) (Result[models.ResourceItem], error) {
	item, err := s.GetResource(ctx, userID, workspaceID, resourceID)
	if err != nil {
		return Result[models.ResourceItem]{}, err
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Threshold != nil {
		item.Threshold = *req.Threshold
	}
	return s.saveResource(ctx, userID, item, "resource.updated", "Updated "+item.Name)
}

func (s *WorkspaceService) UpdateResourceQuantity(ctx context.Context, userID, workspaceID, resourceID string, quantity float64) (Result[models.ResourceItem], error) {
	item, err := s.GetResource(ctx, userID, workspaceID, resourceID)
	if err != nil {
		return Result[models.ResourceItem]{}, err
	}
	item.Quantity = quantity
	return s.saveResource(ctx, userID, item, "resource.quantity", fmt.Sprintf("%s quantity set to %g", item.Name, quantity))
}

func (s *WorkspaceService) saveResource(ctx context.Context, userID string, item *models.ResourceItem, event, description string) (Result[models.ResourceItem], error) {
	item.Recompute()
	if err := s.repo.UpdateResource(ctx, item); err != nil {
		return Result[models.ResourceItem]{}, fmt.Errorf("update resource %s: %w", item.ID, err)
	}
	s.touch(ctx, item.WorkspaceID)

	keys := ResourceKeys(item.WorkspaceID, item.ID)
	s.mutated(ctx, userID, item.WorkspaceID, event, description, keys)
	return Result[models.ResourceItem]{Data: *item, Invalidate: keys}, nil
}

func (s *WorkspaceService) DeleteResource(ctx context.Context, userID, workspaceID, resourceID string) (Result[models.DeletedRef], error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[models.DeletedRef]{}, err
	}
	if err := s.repo.DeleteResource(ctx, workspaceID, resourceID); err != nil {
		return Result[models.DeletedRef]{}, fmt.Errorf("resource %s: %w", resourceID, err)
	}
	s.touch(ctx, workspaceID)

	keys := ResourceKeys(workspaceID, "")
	s.mutated(ctx, userID, workspaceID, "resource.deleted", "Deleted resource "+resourceID, keys)
	return Result[models.DeletedRef]{Data: models.DeletedRef{ID: resourceID, Deleted: true}, Invalidate: keys}, nil
}

// ReplaceResources swaps the whole inventory for the given lines.
func (s *WorkspaceService) ReplaceResources(ctx context.Context, userID, workspaceID string, reqs []models.ResourceRequest) (Result[[]models.ResourceItem], error) {
	items := make([]models.ResourceItem, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, resourceFromRequest(req))
	}
	return s.ApplyResources(ctx, userID, workspaceID, items, "resource.bulk_replaced")
}

// ApplyResources replaces the inventory with items, assigning ids where
// missing and recomputing every status.
func (s *WorkspaceService) ApplyResources(ctx context.Context, userID, workspaceID string, items []models.ResourceItem, event string) (Result[[]models.ResourceItem], error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[[]models.ResourceItem]{}, err
	}

	out := make([]models.ResourceItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = s.newID()
		}
		item.Name = strings.TrimSpace(item.Name)
		item.WorkspaceID = workspaceID
		item.Position = i
		item.Recompute()
		out[i] = item
	}
	if err := s.repo.ReplaceResources(ctx, workspaceID, out); err != nil {
		return Result[[]models.ResourceItem]{}, fmt.Errorf("replace resources: %w", err)
	}
	s.touch(ctx, workspaceID)

	keys := ResourceKeys(workspaceID, "")
	s.mutated(ctx, userID, workspaceID, event, fmt.Sprintf("Inventory replaced with %d items", len(out)), keys)
	return Result[[]models.ResourceItem]{Data: out, Invalidate: keys}, nil
}

func resourceFromRequest(req models.ResourceRequest) models.ResourceItem {
	item := models.ResourceItem{
		Name: strings.TrimSpace(req.Name),
		Unit: strings.TrimSpace(req.Unit),
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Threshold != nil {
		item.Threshold = *req.Threshold
	}
	item.Recompute()
	return item
}

// ---- architecture ----

func (s *WorkspaceService) GetArchitecturePlan(ctx context.Context, userID, workspaceID string) (*models.ArchitecturePlan, error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	plan, err := s.repo.GetArchitecturePlan(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("architecture plan: %w", err)
	}
	plan.Normalize()
	return plan, nil
}

// planOrEmpty returns the stored plan, or an unsaved empty one.
func (s *WorkspaceService) planOrEmpty(ctx context.Context, userID, workspaceID string) (*models.ArchitecturePlan, error) {
	plan, err := s.GetArchitecturePlan(ctx, userID, workspaceID)
	if errors.Is(err, repository.ErrNotFound) {
		if _, ownErr := s.owned(ctx, userID, workspaceID); ownErr != nil {
			return nil, ownErr
		}
		empty := &models.ArchitecturePlan{WorkspaceID: workspaceID}
		empty.Normalize()
		return empty, nil
	}
	return plan, err
}

// SaveArchitecturePlan stores req as the workspace plan. With
// requireExisting set the call fails when there is no plan to update.
func (s *WorkspaceService) SaveArchitecturePlan(ctx context.Context, userID, workspaceID string, req models.ArchitecturePlanRequest, requireExisting bool) (Result[models.ArchitecturePlan], error) {
	if requireExisting {
		if _, err := s.GetArchitecturePlan(ctx, userID, workspaceID); err != nil {
			return Result[models.ArchitecturePlan]{}, err
		}
	} else if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[models.ArchitecturePlan]{}, err
	}

	plan := models.ArchitecturePlan{
		WorkspaceID:  workspaceID,
		Sections:     req.Sections,
		Materials:    req.Materials,
		Stages:       req.Stages,
		MaterialList: req.MaterialList,
		Summary:      req.Summary,
		CostEstimate: req.CostEstimate,
		Timeline:     req.Timeline,
	}
	event := "architecture.saved"
	if requireExisting {
		event = "architecture.updated"
	}
	return s.savePlan(ctx, userID, &plan, event)
}

// SaveGeneratedPlan stores a model-generated plan, overwriting any previous one.
func (s *WorkspaceService) SaveGeneratedPlan(ctx context.Context, userID, workspaceID string, plan models.ArchitecturePlan) (Result[models.ArchitecturePlan], error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[models.ArchitecturePlan]{}, err
	}
	plan.WorkspaceID = workspaceID
	return s.savePlan(ctx, userID, &plan, "architecture.generated")
}

func (s *WorkspaceService) savePlan(ctx context.Context, userID string, plan *models.ArchitecturePlan, event string) (Result[models.ArchitecturePlan], error) {
	now := s.now()
	existing, err := s.repo.GetArchitecturePlan(ctx, plan.WorkspaceID)
	switch {
	case err == nil:
		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
	case errors.Is(err, repository.ErrNotFound):
		plan.ID = s.newID()
		plan.CreatedAt = now
	default:
		return Result[models.ArchitecturePlan]{}, fmt.Errorf("load architecture plan: %w", err)
	}
	plan.UpdatedAt = now
	plan.Normalize()

	if err := s.repo.SaveArchitecturePlan(ctx, plan); err != nil {
		return Result[models.ArchitecturePlan]{}, fmt.Errorf("save architecture plan: %w", err)
	}
	s.touch(ctx, plan.WorkspaceID)

	keys := ArchitectureKeys(plan.WorkspaceID)
	s.mutated(ctx, userID, plan.WorkspaceID, event, "Architecture plan saved", keys)
	return Result[models.ArchitecturePlan]{Data: *plan, Invalidate: keys}, nil
}

func (s *WorkspaceService) DeleteArchitecturePlan(ctx context.Context, userID, workspaceID string) (Result[models.DeletedRef], error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[models.DeletedRef]{}, err
	}
	if err := s.repo.DeleteArchitecturePlan(ctx, workspaceID); err != nil {
		return Result[models.DeletedRef]{}, fmt.Errorf("architecture plan: %w", err)
	}
	s.touch(ctx, workspaceID)

	keys := ArchitectureKeys(workspaceID)
	s.mutated(ctx, userID, workspaceID, "architecture.deleted", "Architecture plan deleted", keys)
	return Result[models.DeletedRef]{Data: models.DeletedRef{ID: workspaceID, Deleted: true}, Invalidate: keys}, nil
}

func (s *WorkspaceService) ListSections(ctx context.Context, userID, workspaceID string) ([]models.PlanSection, error) {
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	return plan.Sections, nil
}

func (s *WorkspaceService) ListMaterials(ctx context.Context, userID, workspaceID string) ([]models.PlanMaterial, error) {
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	return plan.Materials, nil
}

func (s *WorkspaceService) ListStages(ctx context.Context, userID, workspaceID string) ([]models.PlanStage, error) {
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	return plan.Stages, nil
}

// AddSection appends to the plan, creating an empty plan first if needed.
func (s *WorkspaceService) AddSection(ctx context.Context, userID, workspaceID string, section models.PlanSection) (Result[models.PlanSection], error) {
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return Result[models.PlanSection]{}, err
	}
	plan.Sections = append(plan.Sections, section)
	res, err := s.savePlan(ctx, userID, plan, "architecture.section_added")
	return Result[models.PlanSection]{Data: section, Invalidate: res.Invalidate}, err
}

func (s *WorkspaceService) AddMaterial(ctx context.Context, userID, workspaceID string, material models.PlanMaterial) (Result[models.PlanMaterial], error) {
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return Result[models.PlanMaterial]{}, err
	}
	plan.Materials = append(plan.Materials, material)
	res, err := s.savePlan(ctx, userID, plan, "architecture.material_added")
	return Result[models.PlanMaterial]{Data: material, Invalidate: res.Invalidate}, err
}

func (s *WorkspaceService) AddStage(ctx context.Context, userID, workspaceID string, stage models.PlanStage) (Result[models.PlanStage], error) {
	if stage.Tasks == nil {
		stage.Tasks = []string{}
	}
	plan, err := s.planOrEmpty(ctx, userID, workspaceID)
	if err != nil {
		return Result[models.PlanStage]{}, err
	}
	plan.Stages = append(plan.Stages, stage)
	res, err := s.savePlan(ctx, userID, plan, "architecture.stage_added")
	return Result[models.PlanStage]{Data: stage, Invalidate: res.Invalidate}, err
}

// ---- safety reports ----

func (s *WorkspaceService) ListSafetyReports(ctx context.Context, userID, workspaceID string) ([]models.SafetyReport, error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	reports, err := s.repo.ListSafetyReports(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list safety reports: %w", err)
	}
	if reports == nil {
		reports = []models.SafetyReport{}
	}
	return reports, nil
}

func (s *WorkspaceService) GetSafetyReport(ctx context.Context, userID, workspaceID, reportID string) (*models.SafetyReport, error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	report, err := s.repo.GetSafetyReport(ctx, workspaceID, reportID)
	if err != nil {
		return nil, fmt.Errorf("safety report %s: %w", reportID, err)
	}
	return report, nil
}

// SaveSafetyReport appends a report and sets the workspace safety score to
// 100 minus its risk score.
func (s *WorkspaceService) SaveSafetyReport(ctx context.Context, userID, workspaceID string, analysis models.SafetyAnalysis) (Result[models.SafetyReport], error) {
	if _, err := s.owned(ctx, userID, workspaceID); err != nil {
		return Result[models.SafetyReport]{}, err
	}

	now := s.now()
	report := analysis.ToReport()
	report.ID = s.newID()
	report.WorkspaceID = workspaceID
	report.Date = now
	report.CreatedAt = now
	score := models.SafetyScoreFromRisk(float64(report.RiskScore))

	if err := s.repo.AppendSafetyReport(ctx, &report, score, now); err != nil {
		return Result[models.SafetyReport]{}, fmt.Errorf("save safety report: %w", err)
	}

	keys := SafetyReportKeys(workspaceID)
	s.mutated(ctx, userID, workspaceID, "safety.report_saved",
		fmt.Sprintf("Safety report saved with risk score %d", report.RiskScore), keys)
	return Result[models.SafetyReport]{Data: report, Invalidate: keys}, nil
}

// ---- activity ----

// ListActivity pages through the user's activity log. An empty workspaceID
// covers every workspace.
func (s *WorkspaceService) ListActivity(ctx context.Context, userID, workspaceID string, page, limit int) (models.ActivityLogPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if workspaceID != "" {
		if _, err := s.owned(ctx, userID, workspaceID); err != nil {
			return models.ActivityLogPage{}, err
		}
	}

	logs, total, err := s.repo.ListActivityLogs(ctx, userID, workspaceID, limit, (page-1)*limit)
	if err != nil {
		return models.ActivityLogPage{}, fmt.Errorf("list activity: %w", err)
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return models.ActivityLogPage{
		Data: logs,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}
