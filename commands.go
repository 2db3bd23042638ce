package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"siteguard/config"
	"siteguard/handlers"
	"siteguard/jobs"
	"siteguard/storage"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setupLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		if cfg.StorageDriver != config.StorageDriverPostgres {
			return errors.New("migrate requires STORAGE_DRIVER=postgres")
		}

		db, err := storage.InitGormDB(cfg.Database, log)
		if err != nil {
			return err
		}
		defer storage.Close(db)
		if err := storage.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("schema migrated")
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run the maintenance jobs once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setupLogger()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		runner := jobs.NewRunner(jobs.DefaultJobs(a.repo, a.auth, log.Named("jobs")), a.metrics, log.Named("jobs"))
		runner.Run(cmd.Context())
		return nil
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setupLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	runner := jobs.NewRunner(jobs.DefaultJobs(a.repo, a.auth, log.Named("jobs")), a.metrics, log.Named("jobs"))
	scheduler, err := jobs.Schedule(cfg.CronSchedule, runner)
	if err != nil {
		return err
	}
	scheduler.Start()

	gin.SetMode(cfg.GinMode)
	router := handlers.NewRouter(handlers.Dependencies{
		Repo:            a.repo,
		Auth:            a.auth,
		Workspaces:      a.workspaces,
		AI:              a.ai,
		Mailer:          a.mailer,
		Metrics:         a.metrics,
		Log:             log.Named("http"),
		CORSOrigins:     cfg.CORSOrigins,
		AIRatePerMinute: cfg.AIRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("storage", a.repo.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop scheduling first, then wait for a running sweep and in-flight requests.
	cronDone := scheduler.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	select {
	case <-cronDone.Done():
	case <-shutdownCtx.Done():
		log.Warn("maintenance run still active at shutdown")
	}
	log.Info("server exiting")
	return nil
}
