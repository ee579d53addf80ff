// Package memory provides in-memory repository implementations backing tests
// and single-process local development. The ledger honors the same indivisible
// conditional-increment contract as the Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
)

// Store holds every record type behind a single lock. Contention is not a
// concern at test and dev scale.
type Store struct {
	mu sync.Mutex

	campaigns   map[uuid.UUID]*models.Campaign
	figures     map[uuid.UUID]*models.Figure
	brandGuides map[uuid.UUID]*models.BrandGuide
	limits      map[limitKey]*models.GenerationLimit
	auditLogs   []*models.DecisionLog
}

type limitKey struct {
	campaignID uuid.UUID
	day        string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		campaigns:   make(map[uuid.UUID]*models.Campaign),
		figures:     make(map[uuid.UUID]*models.Figure),
		brandGuides: make(map[uuid.UUID]*models.BrandGuide),
		limits:      make(map[limitKey]*models.GenerationLimit),
	}
}

// NewRepositories wires the store into the repository aggregate.
func NewRepositories(store *Store) *repositories.Repositories {
	return &repositories.Repositories{
		Campaigns:        &CampaignRepository{store: store},
		Figures:          &FigureRepository{store: store},
		BrandGuides:      &BrandGuideRepository{store: store},
		GenerationLimits: &GenerationLimitRepository{store: store},
		AuditLogs:        &AuditRepository{store: store},
	}
}

// PutCampaign seeds or replaces a campaign record.
func (s *Store) PutCampaign(c *models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

// PutFigure seeds or replaces a figure record.
func (s *Store) PutFigure(f *models.Figure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.figures[f.ID] = f
}

// PutBrandGuide seeds or replaces a brand guide record.
func (s *Store) PutBrandGuide(g *models.BrandGuide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brandGuides[g.ID] = g
}

// CampaignRepository is the in-memory campaign reader.
type CampaignRepository struct {
	store *Store
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.campaigns[id]
	if !ok {
		return nil, services.ErrCampaignNotFound
	}
	copied := *c
	return &copied, nil
}

// FigureRepository is the in-memory figure reader.
type FigureRepository struct {
	store *Store
}

func (r *FigureRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Figure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.figures[id]
	if !ok {
		return nil, services.ErrFigureNotFound
	}
	copied := *f
	return &copied, nil
}

// BrandGuideRepository is the in-memory brand guide reader.
type BrandGuideRepository struct {
	store *Store
}

func (r *BrandGuideRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BrandGuide, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	g, ok := r.store.brandGuides[id]
	if !ok {
		return nil, services.ErrBrandGuideNotFound
	}
	copied := *g
	return &copied, nil
}

// GenerationLimitRepository is the in-memory spend ledger. The store lock
// makes the read-check-increment sequence indivisible.
type GenerationLimitRepository struct {
	store *Store
}

func (r *GenerationLimitRepository) Reserve(ctx context.Context, campaignID uuid.UUID, day string, amount decimal.Decimal, cap *decimal.Decimal) (bool, *models.GenerationLimit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := limitKey{campaignID: campaignID, day: day}
	now := time.Now().UTC()

	row, ok := r.store.limits[key]
	if !ok {
		row = &models.GenerationLimit{
			CampaignID: campaignID,
			Day:        day,
			Spend:      decimal.Zero,
			CreatedAt:  now,
		}
	}

	newSpend := row.Spend.Add(amount)
	if cap != nil && newSpend.GreaterThan(*cap) {
		return false, nil, nil
	}

	row.Spend = newSpend
	row.JobsCount++
	row.UpdatedAt = now
	r.store.limits[key] = row

	copied := *row
	return true, &copied, nil
}

func (r *GenerationLimitRepository) Get(ctx context.Context, campaignID uuid.UUID, day string) (*models.GenerationLimit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.limits[limitKey{campaignID: campaignID, day: day}]
	if !ok {
		return nil, services.ErrLedgerRowNotFound
	}
	copied := *row
	return &copied, nil
}

// AuditRepository is the in-memory decision trail.
type AuditRepository struct {
	store *Store
}

func (r *AuditRepository) Insert(ctx context.Context, log *models.DecisionLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *log
	r.store.auditLogs = append(r.store.auditLogs, &copied)
	return nil
}

func (r *AuditRepository) GetByCampaignID(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*models.DecisionLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*models.DecisionLog
	for _, log := range r.store.auditLogs {
		if log.CampaignID == campaignID {
			copied := *log
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
