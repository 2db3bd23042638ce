// Package jobs runs the scheduled maintenance sweep.
package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"siteguard/metrics"
	"siteguard/models"
	"siteguard/repository"
	"siteguard/services"
	"siteguard/utils"
)

// RunTimeout bounds one full maintenance cycle.
const RunTimeout = 25 * time.Minute

// Job is one named unit of the maintenance sweep.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes the maintenance jobs in parallel, never more than one
// cycle at a time.
type Runner struct {
	jobs    []Job
	metrics *metrics.Metrics
	log     *zap.Logger
	running atomic.Bool
	timeout time.Duration
}

func NewRunner(jobs []Job, m *metrics.Metrics, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{jobs: jobs, metrics: m, log: log, timeout: RunTimeout}
}

// DefaultJobs is the daily sweep: expired sessions, resource status repair
// and a low-stock report.
func DefaultJobs(repo repository.Repository, auth *services.AuthService, log *zap.Logger) []Job {
	if log == nil {
		log = zap.NewNop()
	}
	return []Job{
		{
			Name: "CleanupExpiredSessions",
			Run: func(ctx context.Context) error {
				n, err := auth.CleanupExpiredSessions(ctx)
				if err != nil {
					return err
				}
				log.Info("expired sessions removed", zap.Int64("count", n))
				return nil
			},
		},
		{
			Name: "ReconcileResourceStatuses",
			Run: func(ctx context.Context) error {
				n, err := repo.ReconcileResourceStatuses(ctx)
				if err != nil {
					return err
				}
				if n > 0 {
					log.Warn("resource statuses repaired", zap.Int64("count", n))
				}
				return nil
			},
		},
		{
			Name: "LowStockReport",
			Run: func(ctx context.Context) error {
				return LogLowStock(ctx, repo, log)
			},
		},
	}
}

// LogLowStock logs one line per workspace that has Low or Critical resources.
func LogLowStock(ctx context.Context, repo repository.Repository, log *zap.Logger) error {
	workspaces, err := repo.ListAllWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}
	for _, w := range workspaces {
		critical := models.ResourceNamesByStatus(w.Resources, models.ResourceCritical)
		low := models.ResourceNamesByStatus(w.Resources, models.ResourceLow)
		if len(critical) == 0 && len(low) == 0 {
			continue
		}
		log.Warn("workspace low on stock",
			zap.String("workspace_id", w.ID),
			zap.String("workspace", w.Name),
			zap.Strings("critical", critical),
			zap.Strings("low", low))
	}
	return nil
}

// Run executes every job once. It returns false when a previous cycle is
// still in progress. The guard stays held until every job has returned, even
// after Run gives up waiting on a timeout.
func (r *Runner) Run(parent context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn("previous maintenance run still in progress, skipping")
		return false
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	r.log.Info("maintenance run started", zap.Int("jobs", len(r.jobs)))
	var wg sync.WaitGroup
	for _, job := range r.jobs {
		r.safeGo(ctx, &wg, job)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		r.running.Store(false)
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("maintenance run finished")
	case <-ctx.Done():
		r.log.Warn("maintenance run timed out, jobs cancelled", zap.Error(ctx.Err()))
	}
	return true
}

func (r *Runner) safeGo(ctx context.Context, wg *sync.WaitGroup, job Job) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("maintenance job panicked",
					zap.String("job", job.Name),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				r.metrics.ObserveJob(job.Name, "panic")
			}
		}()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			r.log.Error("maintenance job failed", zap.String("job", job.Name), zap.Error(err))
			r.metrics.ObserveJob(job.Name, "error")
			return
		}
		r.log.Info("maintenance job completed",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)))
		r.metrics.ObserveJob(job.Name, "ok")
	}()
}

// Schedule registers the runner on a cron scheduler for expr. The caller
// starts and stops the returned scheduler.
func Schedule(expr string, r *Runner) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(utils.PrintfLogger{Log: r.log.Sugar()})),
	)
	if _, err := c.AddFunc(expr, func() { r.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule maintenance %q: %w", expr, err)
	}
	return c, nil
}
