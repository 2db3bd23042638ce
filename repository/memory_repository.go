package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"siteguard/models"
)

// MemoryRepository keeps all state in process memory. It backs offline mode
// and tests. Every value crossing its boundary is copied.
type MemoryRepository struct {
	mu sync.RWMutex

	users      map[string]models.User
	sessions   map[string]models.Session
	workspaces map[string]models.Workspace
	// insertion order of workspace ids
	order     []string
	resources map[string][]models.ResourceItem
	plans     map[string]models.ArchitecturePlan
	reports   map[string][]models.SafetyReport
	logs      []models.ActivityLog
	nextLogID uint

	now func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[string]models.User),
		sessions:   make(map[string]models.Session),
		workspaces: make(map[string]models.Workspace),
		resources:  make(map[string][]models.ResourceItem),
		plans:      make(map[string]models.ArchitecturePlan),
		reports:    make(map[string][]models.SafetyReport),
		now:        time.Now,
	}
}

func (r *MemoryRepository) Driver() string { return "memory" }

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ---- users ----

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == email {
			return ErrConflict
		}
	}
	if _, ok := r.users[user.ID]; ok {
		return ErrConflict
	}
	user.Email = email
	stamp(&user.CreatedAt, &user.UpdatedAt, r.now())
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// ---- sessions ----

func (r *MemoryRepository) SaveSession(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemoryRepository) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryRepository) CleanupExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.RefreshTokenExpiresAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// ---- workspaces ----

func (r *MemoryRepository) withResources(w models.Workspace) models.Workspace {
	w.Resources = cloneResources(r.resources[w.ID])
	return w
}

func (r *MemoryRepository) ListWorkspaces(_ context.Context, userID string) ([]models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Workspace{}
	for i := len(r.order) - 1; i >= 0; i-- {
		w := r.workspaces[r.order[i]]
		if w.UserID == userID {
			out = append(out, r.withResources(w))
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListAllWorkspaces(context.Context) ([]models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Workspace, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.withResources(r.workspaces[id]))
	}
	return out, nil
}

func (r *MemoryRepository) lookup(userID, id string) (models.Workspace, bool) {
	w, ok := r.workspaces[id]
	if !ok || w.UserID != userID {
		return models.Workspace{}, false
	}
	return w, true
}

func (r *MemoryRepository) GetWorkspace(_ context.Context, userID, id string) (*models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.lookup(userID, id)
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (r *MemoryRepository) GetWorkspaceDetails(_ context.Context, userID, id string) (*models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.lookup(userID, id)
	if !ok {
		return nil, ErrNotFound
	}
	w = r.withResources(w)
	if plan, ok := r.plans[id]; ok {
		p := clonePlan(plan)
		w.ArchitecturePlan = &p
	}
	w.SafetyReports = r.reportsNewestFirst(id)
	return &w, nil
}

func (r *MemoryRepository) CreateWorkspace(_ context.Context, workspace *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[workspace.ID]; ok {
		return ErrConflict
	}
	now := r.now()
	stamp(&workspace.CreatedAt, &workspace.UpdatedAt, now)

	items := cloneResources(workspace.Resources)
	for i := range items {
		items[i].WorkspaceID = workspace.ID
		stamp(&items[i].CreatedAt, &items[i].UpdatedAt, now)
		workspace.Resources[i] = items[i]
	}
	r.resources[workspace.ID] = items

	stored := *workspace
	stored.Resources = nil
	stored.ArchitecturePlan = nil
	stored.SafetyReports = nil
	r.workspaces[workspace.ID] = stored
	r.order = append(r.order, workspace.ID)
	return nil
}

func (r *MemoryRepository) UpdateWorkspace(_ context.Context, workspace *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.lookup(workspace.UserID, workspace.ID)
	if !ok {
		return ErrNotFound
	}
	cur.Name = workspace.Name
	cur.Location = workspace.Location
	cur.Stage = workspace.Stage
	cur.Budget = workspace.Budget
	cur.Type = workspace.Type
	cur.Status = workspace.Status
	cur.Progress = workspace.Progress
	cur.SafetyScore = workspace.SafetyScore
	cur.LastUpdated = workspace.LastUpdated
	cur.UpdatedAt = r.now()
	workspace.UpdatedAt = cur.UpdatedAt
	r.workspaces[cur.ID] = cur
	return nil
}

func (r *MemoryRepository) TouchWorkspace(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[id]
	if !ok {
		return ErrNotFound
	}
	w.LastUpdated = at
	w.UpdatedAt = r.now()
	r.workspaces[id] = w
	return nil
}

func (r *MemoryRepository) DeleteWorkspace(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lookup(userID, id); !ok {
		return ErrNotFound
	}
	delete(r.workspaces, id)
	delete(r.resources, id)
	delete(r.plans, id)
	delete(r.reports, id)
	for i, wid := range r.order {
		if wid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ---- resources ----

func (r *MemoryRepository) ListResources(_ context.Context, workspaceID string) ([]models.ResourceItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneResources(r.resources[workspaceID]), nil
}

func (r *MemoryRepository) GetResource(_ context.Context, workspaceID, id string) (*models.ResourceItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.resources[workspaceID] {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) CreateResource(_ context.Context, item *models.ResourceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[item.WorkspaceID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.resources[item.WorkspaceID] {
		if existing.ID == item.ID {
			return ErrConflict
		}
	}
	stamp(&item.CreatedAt, &item.UpdatedAt, r.now())
	r.resources[item.WorkspaceID] = append(r.resources[item.WorkspaceID], *item)
	return nil
}

func (r *MemoryRepository) UpdateResource(_ context.Context, item *models.ResourceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.resources[item.WorkspaceID]
	for i := range items {
		if items[i].ID != item.ID {
			continue
		}
		items[i].Name = item.Name
		items[i].Quantity = item.Quantity
		items[i].Unit = item.Unit
		items[i].Threshold = item.Threshold
		items[i].Status = item.Status
		items[i].UpdatedAt = r.now()
		item.UpdatedAt = items[i].UpdatedAt
		return nil
	}
	return ErrNotFound
}

func (r *MemoryRepository) DeleteResource(_ context.Context, workspaceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.resources[workspaceID]
	for i := range items {
		if items[i].ID == id {
			r.resources[workspaceID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) ReplaceResources(_ context.Context, workspaceID string, items []models.ResourceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[workspaceID]; !ok {
		return ErrNotFound
	}
	now := r.now()
	stored := cloneResources(items)
	for i := range stored {
		stored[i].WorkspaceID = workspaceID
		stamp(&stored[i].CreatedAt, &stored[i].UpdatedAt, now)
	}
	r.resources[workspaceID] = stored
	return nil
}

func (r *MemoryRepository) ReconcileResourceStatuses(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, items := range r.resources {
		for i := range items {
			want := models.DeriveResourceStatus(items[i].Quantity, items[i].Threshold)
			if items[i].Status != want {
				items[i].Status = want
				n++
			}
		}
	}
	return n, nil
}

// ---- architecture ----

func (r *MemoryRepository) GetArchitecturePlan(_ context.Context, workspaceID string) (*models.ArchitecturePlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[workspaceID]
	if !ok {
		return nil, ErrNotFound
	}
	p := clonePlan(plan)
	return &p, nil
}

func (r *MemoryRepository) SaveArchitecturePlan(_ context.Context, plan *models.ArchitecturePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[plan.WorkspaceID]; !ok {
		return ErrNotFound
	}
	if existing, ok := r.plans[plan.WorkspaceID]; ok {
		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
	}
	stamp(&plan.CreatedAt, &plan.UpdatedAt, r.now())
	r.plans[plan.WorkspaceID] = clonePlan(*plan)
	return nil
}

func (r *MemoryRepository) DeleteArchitecturePlan(_ context.Context, workspaceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[workspaceID]; !ok {
		return ErrNotFound
	}
	delete(r.plans, workspaceID)
	return nil
}

// ---- safety reports ----

func (r *MemoryRepository) reportsNewestFirst(workspaceID string) []models.SafetyReport {
	src := r.reports[workspaceID]
	out := make([]models.SafetyReport, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, cloneReport(src[i]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r *MemoryRepository) ListSafetyReports(_ context.Context, workspaceID string) ([]models.SafetyReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reportsNewestFirst(workspaceID), nil
}

func (r *MemoryRepository) GetSafetyReport(_ context.Context, workspaceID, id string) (*models.SafetyReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rep := range r.reports[workspaceID] {
		if rep.ID == id {
			c := cloneReport(rep)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) AppendSafetyReport(_ context.Context, report *models.SafetyReport, safetyScore int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[report.WorkspaceID]
	if !ok {
		return ErrNotFound
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = r.now()
	}
	r.reports[report.WorkspaceID] = append(r.reports[report.WorkspaceID], cloneReport(*report))
	w.SafetyScore = safetyScore
	w.LastUpdated = at
	w.UpdatedAt = r.now()
	r.workspaces[w.ID] = w
	return nil
}

// ---- activity logs ----

func (r *MemoryRepository) AddActivityLog(_ context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextLogID++
	entry.ID = r.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *MemoryRepository) ListActivityLogs(_ context.Context, userID, workspaceID string, limit, offset int) ([]models.ActivityLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []models.ActivityLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if l.UserID != userID || (workspaceID != "" && l.WorkspaceID != workspaceID) {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.ActivityLog{}, total, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// ---- copies ----

func cloneResources(items []models.ResourceItem) []models.ResourceItem {
	if items == nil {
		return []models.ResourceItem{}
	}
	return append([]models.ResourceItem(nil), items...)
}

func clonePlan(p models.ArchitecturePlan) models.ArchitecturePlan {
	out := p
	out.Sections = append(datatypes.JSONSlice[models.PlanSection]{}, p.Sections...)
	out.Materials = append(datatypes.JSONSlice[models.PlanMaterial]{}, p.Materials...)
	out.Stages = make(datatypes.JSONSlice[models.PlanStage], len(p.Stages))
	for i, s := range p.Stages {
		s.Tasks = append([]string{}, s.Tasks...)
		out.Stages[i] = s
	}
	if p.MaterialList != nil {
		out.MaterialList = append(pq.StringArray{}, p.MaterialList...)
	}
	return out
}

func cloneReport(rep models.SafetyReport) models.SafetyReport {
	out := rep
	out.Hazards = append(datatypes.JSONSlice[models.Hazard]{}, rep.Hazards...)
	return out
}
