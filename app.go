package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"siteguard/config"
	"siteguard/metrics"
	"siteguard/repository"
	"siteguard/services"
	"siteguard/storage"
	"siteguard/utils"
)

// app holds every long-lived collaborator of the process.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	repo    repository.Repository
	events  services.EventPublisher
	metrics *metrics.Metrics

	auth       *services.AuthService
	workspaces *services.WorkspaceService
	ai         *services.AIService
	mailer     *services.ReportMailer
}

// setupLogger loads configuration and installs the process logger.
func setupLogger() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	utils.SetLogger(log)
	return cfg, log, nil
}

// openRepository picks the storage driver. Postgres is migrated on open.
func openRepository(cfg config.Config, log *zap.Logger) (repository.Repository, *gorm.DB, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(), nil, nil
	}

	db, err := storage.InitGormDB(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.AutoMigrate(db); err != nil {
		_ = storage.Close(db)
		return nil, nil, err
	}
	return repository.NewGormRepository(db), db, nil
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	repo, db, err := openRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		repo:    repo,
		metrics: metrics.New("siteguard"),
	}

	a.events = services.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := services.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, services.NATSOptions{}, a.metrics, log.Named("nats"))
		if err != nil {
			log.Warn("invalidation events disabled", zap.Error(err))
		} else {
			a.events = pub
			log.Info("publishing invalidation events", zap.String("url", cfg.NATSURL))
		}
	}

	var gen services.Generator
	if cfg.AIEnabled() {
		gemini, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		gen = services.NewBreakerGenerator(gemini, services.BreakerConfig{}, log.Named("breaker"))
		log.Info("AI enabled", zap.String("model", cfg.GeminiModel))
	} else {
		log.Warn("GEMINI_API_KEY not set, AI features disabled")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	a.auth = services.NewAuthService(repo, tokens, log.Named("auth"))
	a.workspaces = services.NewWorkspaceService(repo, a.events, log.Named("workspaces"))
	a.ai = services.NewAIService(gen, a.metrics, log.Named("ai"))
	a.mailer = services.NewReportMailer(cfg.SMTP, log.Named("mail"))
	if !a.mailer.Enabled() {
		log.Info("SMTP not configured, report email disabled")
	}
	return a, nil
}

func (a *app) close() {
	if a.events != nil {
		a.events.Close()
	}
	if a.db != nil {
		if err := storage.Close(a.db); err != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
