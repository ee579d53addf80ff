package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/config"
	"github.com/easymo/generation-control-plane/internal/observability"
	"github.com/easymo/generation-control-plane/middleware"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/repositories/postgres"
	"github.com/easymo/generation-control-plane/services/admission"
	"github.com/easymo/generation-control-plane/services/audit"
	"github.com/easymo/generation-control-plane/services/ledger"
)

// Dependencies is the central wiring point for dependency injection. Every
// handler and service receives its collaborators from here; nothing reaches
// for globals.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Campaigns        repositories.CampaignRepository
	Figures          repositories.FigureRepository
	BrandGuides      repositories.BrandGuideRepository
	GenerationLimits repositories.GenerationLimitRepository
	AuditLogs        repositories.AuditRepository

	// Services
	Ledger    *ledger.Service
	Audit     *audit.Service
	Admission *admission.Service

	// Observability
	Metrics *observability.CounterMetrics

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories and services
	deps.initRepositories()
	deps.initServices(cfg)

	// Initialize service token auth
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Campaigns = repos.Campaigns
	d.Figures = repos.Figures
	d.BrandGuides = repos.BrandGuides
	d.GenerationLimits = repos.GenerationLimits
	d.AuditLogs = repos.AuditLogs

	d.Logger.Info("repositories initialized")
}

// initServices wires the admission pipeline
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Metrics = observability.NewCounterMetrics()

	d.Ledger = ledger.NewService(d.GenerationLimits, d.Logger, ledger.Config{
		MaxAttempts:  cfg.Engine.LedgerMaxAttempts,
		RetryBackoff: cfg.Engine.LedgerRetryBackoff,
	})

	d.Audit = audit.NewService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Engine.AuditBufferSize,
		WorkerCount: cfg.Engine.AuditWorkerCount,
	})

	d.Admission = admission.NewService(
		d.Campaigns,
		d.Figures,
		d.BrandGuides,
		d.Ledger,
		d.Audit,
		d.Metrics,
		d.Logger,
	)

	d.Logger.Info("admission pipeline initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.Auth.Enabled {
		d.Logger.Warn("service token auth disabled, endpoints are open")
		d.AuthMiddleware = nil
		return
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth.TokenSecret, cfg.Auth.Issuer, d.Logger)
	d.Logger.Info("service token auth initialized",
		zap.String("issuer", cfg.Auth.Issuer))
}

// Start launches background components. Call before serving traffic.
func (d *Dependencies) Start() error {
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit pipeline before closing its store.
	if d.Audit != nil {
		if err := d.Audit.Stop(d.Config.Server.ShutdownTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
