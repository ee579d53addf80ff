package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/internal/observability"
	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
	"github.com/easymo/generation-control-plane/services/audit"
	"github.com/easymo/generation-control-plane/services/ledger"
	"github.com/easymo/generation-control-plane/services/policy"
	"github.com/easymo/generation-control-plane/services/prompt"
)

// Service coordinates the admission pipeline: policy lookups, the pure
// validation and prompt assembly stages, and the atomic spend reservation.
// It owns no mutable state of its own.
type Service struct {
	campaigns repositories.CampaignRepository
	figures   repositories.FigureRepository
	guides    repositories.BrandGuideRepository
	validator *policy.Validator
	assembler *prompt.Assembler
	ledger    *ledger.Service
	audit     *audit.Service
	metrics   observability.DecisionMetrics
	logger    *zap.Logger
}

// NewService creates a new admission Service with all dependencies
func NewService(
	campaigns repositories.CampaignRepository,
	figures repositories.FigureRepository,
	guides repositories.BrandGuideRepository,
	ledgerSvc *ledger.Service,
	auditSvc *audit.Service,
	metrics observability.DecisionMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		campaigns: campaigns,
		figures:   figures,
		guides:    guides,
		validator: policy.NewValidator(),
		assembler: prompt.NewAssembler(),
		ledger:    ledgerSvc,
		audit:     auditSvc,
		metrics:   metrics,
		logger:    logger,
	}
}

// Admit decides a single generation request. On success the spend ledger has
// been incremented and the returned decision carries the guarded prompt, its
// fingerprint, and an opaque job id. On rejection the ledger is untouched
// and the error is an *AdmissionError tagged with the reason. Admission is
// all-or-nothing; a non-AdmissionError return means the request is
// unresolved, not rejected.
func (s *Service) Admit(ctx context.Context, req *models.GenerationRequest) (*models.AdmissionDecision, error) {
	startedAt := time.Now()
	now := time.Now().UTC()

	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		if services.IsNotFoundError(err) {
			return nil, s.reject(req, nil, startedAt,
				NewRejection(models.ReasonNotFound, fmt.Sprintf("campaign %s not found", req.CampaignID)))
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	figure, err := s.figures.GetByID(ctx, req.FigureID)
	if err != nil {
		if services.IsNotFoundError(err) {
			return nil, s.reject(req, nil, startedAt,
				NewRejection(models.ReasonNotFound, "figure is not registered for this campaign"))
		}
		return nil, fmt.Errorf("failed to load figure: %w", err)
	}

	guide, guideErr := s.resolveBrandGuide(ctx, campaign, figure)
	if guideErr != nil {
		return nil, guideErr
	}

	if violation := s.validator.Validate(now, campaign, figure, guide, req); violation != nil {
		rejection := NewRejection(violation.Reason, violation.Detail).
			WithViolatingTerms(violation.ViolatingTerms)
		return nil, s.reject(req, guide, startedAt, rejection)
	}

	assembly := s.assembler.Assemble(guide, figure, req)

	reservation, err := s.ledger.Reserve(ctx, ledger.ReserveRequest{
		CampaignID: campaign.ID,
		Day:        models.DayKey(now),
		Amount:     req.EstimatedCost,
		Cap:        campaign.DailyCostCap,
	})
	if err != nil {
		if errors.Is(err, services.ErrLedgerContention) {
			return nil, s.reject(req, guide, startedAt,
				NewRejection(models.ReasonTransientContention, "spend ledger is contended, retry shortly"))
		}
		return nil, fmt.Errorf("failed to reserve spend: %w", err)
	}
	if !reservation.Accepted {
		return nil, s.reject(req, guide, startedAt,
			NewRejection(models.ReasonDailyCapExceeded, "campaign daily cost cap exceeded"))
	}

	jobID := uuid.NewString()
	latencyMs := int(time.Since(startedAt).Milliseconds())

	decision := &models.AdmissionDecision{
		JobID:       jobID,
		FinalPrompt: assembly.FinalPrompt,
		PromptHash:  assembly.Hash,
		AppliedPolicies: models.AppliedPolicies{
			CampaignID:     campaign.ID,
			FigureID:       figure.ID,
			ForbiddenTerms: forbiddenTerms(guide),
		},
	}
	if guide != nil {
		decision.AppliedPolicies.BrandGuideID = &guide.ID
	}

	log := models.NewDecisionLog(req, models.OutcomeAdmitted).
		WithJob(jobID, assembly.Hash).
		WithLatency(latencyMs)
	if guide != nil {
		log.WithBrandGuide(guide.ID)
	}
	s.logDecision(log)

	s.metrics.RecordAdmission(campaign.ID.String())
	if req.ExpectedOutputMB != nil {
		s.metrics.RecordOutputSize(campaign.ID.String(), *req.ExpectedOutputMB)
	}

	s.logger.Info("generation job admitted",
		zap.String("job_id", jobID),
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("figure_id", figure.ID.String()),
		zap.String("prompt_hash", assembly.Hash),
		zap.String("estimated_cost", req.EstimatedCost.String()),
		zap.String("day_spend", reservation.NewSpend.String()),
		zap.Int("day_jobs", reservation.NewJobsCount),
		zap.Int("latency_ms", latencyMs))

	return decision, nil
}

// resolveBrandGuide returns the effective guide: the figure's own when set,
// else the campaign default, else nil. A dangling reference resolves to nil
// rather than blocking admission; the gap is logged for operators.
func (s *Service) resolveBrandGuide(ctx context.Context, campaign *models.Campaign, figure *models.Figure) (*models.BrandGuide, error) {
	guideID := figure.BrandGuideID
	if guideID == nil {
		guideID = campaign.BrandGuideID
	}
	if guideID == nil {
		return nil, nil
	}

	guide, err := s.guides.GetByID(ctx, *guideID)
	if err != nil {
		if services.IsNotFoundError(err) {
			s.logger.Warn("brand guide reference is dangling",
				zap.String("brand_guide_id", guideID.String()),
				zap.String("campaign_id", campaign.ID.String()),
				zap.String("figure_id", figure.ID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load brand guide: %w", err)
	}
	return guide, nil
}

// reject records the rejection in the audit trail and metrics, then returns
// the same error for the caller. Rejections never touch the ledger.
func (s *Service) reject(req *models.GenerationRequest, guide *models.BrandGuide, startedAt time.Time, rejection *AdmissionError) *AdmissionError {
	latencyMs := int(time.Since(startedAt).Milliseconds())

	log := models.NewDecisionLog(req, models.OutcomeRejected).
		WithReason(rejection.Reason).
		WithLatency(latencyMs)
	if len(rejection.ViolatingTerms) > 0 {
		log.WithViolatingTerms(rejection.ViolatingTerms)
	}
	if guide != nil {
		log.WithBrandGuide(guide.ID)
	}
	s.logDecision(log)

	s.metrics.RecordRejection(req.CampaignID.String(), rejection.Reason)

	s.logger.Warn("generation job blocked",
		zap.String("reason", string(rejection.Reason)),
		zap.String("campaign_id", req.CampaignID.String()),
		zap.String("figure_id", req.FigureID.String()),
		zap.Strings("violating_terms", rejection.ViolatingTerms),
		zap.Int("latency_ms", latencyMs))

	return rejection
}

// logDecision queues the audit entry; audit being unavailable never blocks
// or fails a decision.
func (s *Service) logDecision(log *models.DecisionLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogDecision(log); err != nil {
		s.logger.Error("failed to queue decision audit entry",
			zap.Error(err),
			zap.String("campaign_id", log.CampaignID.String()))
	}
}

func forbiddenTerms(guide *models.BrandGuide) []string {
	if guide == nil {
		return []string{}
	}
	if guide.ForbiddenTerms == nil {
		return []string{}
	}
	return guide.ForbiddenTerms
}
