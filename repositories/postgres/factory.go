package postgres

import (
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/config"
	"github.com/easymo/generation-control-plane/repositories"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Campaigns:        NewCampaignRepository(f.db, f.logger),
		Figures:          NewFigureRepository(f.db, f.logger),
		BrandGuides:      NewBrandGuideRepository(f.db, f.logger),
		GenerationLimits: NewGenerationLimitRepository(f.db, f.logger),
		AuditLogs:        NewAuditRepository(f.db, f.logger),
	}
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
