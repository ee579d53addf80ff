package policy

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/easymo/generation-control-plane/models"
)

// Violation describes the first policy check a request failed. The reason is
// stable and deterministic: re-submitting the identical request yields the
// identical violation until the underlying policy records change.
type Violation struct {
	Reason         models.RejectionReason
	Detail         string
	ViolatingTerms []string
}

// Validator evaluates a generation request against a campaign, figure and
// resolved brand guide snapshot. It is pure: no storage access, no side
// effects, and it must run before any ledger mutation.
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns the first applicable violation, or nil when the request
// is eligible. Checks run in a fixed order so reason reporting is stable:
// tenant match, kill switch, rights window, geography, forbidden terms, cost.
func (v *Validator) Validate(now time.Time, campaign *models.Campaign, figure *models.Figure, guide *models.BrandGuide, req *models.GenerationRequest) *Violation {
	if campaign == nil {
		return &Violation{
			Reason: models.ReasonNotFound,
			Detail: "campaign not found",
		}
	}
	if figure == nil || figure.TenantID != campaign.TenantID {
		return &Violation{
			Reason: models.ReasonNotFound,
			Detail: "figure is not registered for this campaign",
		}
	}

	if campaign.KillSwitch {
		return &Violation{
			Reason: models.ReasonKillSwitch,
			Detail: "campaign has been disabled via kill switch",
		}
	}

	if figure.RightsStart != nil && now.Before(*figure.RightsStart) {
		return &Violation{
			Reason: models.ReasonRightsNotStarted,
			Detail: fmt.Sprintf("figure rights window starts at %s", figure.RightsStart.UTC().Format(time.RFC3339)),
		}
	}
	if figure.RightsEnd != nil && now.After(*figure.RightsEnd) {
		return &Violation{
			Reason: models.ReasonRightsExpired,
			Detail: fmt.Sprintf("figure rights window expired at %s", figure.RightsEnd.UTC().Format(time.RFC3339)),
		}
	}

	if !figure.CountryAllowed(req.NormalizedCountry()) {
		return &Violation{
			Reason: models.ReasonCountryNotAllowed,
			Detail: "requested country is outside approved territory",
		}
	}
	if !figure.RegionAllowed(req.NormalizedRegion()) {
		return &Violation{
			Reason: models.ReasonRegionNotAllowed,
			Detail: "requested region is outside approved territory",
		}
	}

	if guide != nil {
		if violating := ScanForbiddenTerms(guide.ForbiddenTerms, req.Prompt); len(violating) > 0 {
			// The matched terms go to the audit trail only; the detail stays
			// generic so rejections never reveal the moderation list.
			return &Violation{
				Reason:         models.ReasonTermsViolation,
				Detail:         "prompt contains forbidden claims",
				ViolatingTerms: violating,
			}
		}
	}

	if req.EstimatedCost.IsNegative() {
		return &Violation{
			Reason: models.ReasonInvalidCost,
			Detail: "estimated cost must not be negative",
		}
	}

	return nil
}

// ScanForbiddenTerms tests every term against the prompt with a
// case-insensitive whole-word match and returns all matches, not just the
// first, so operators see the full violation list. Empty terms are skipped.
// Word-boundary semantics also cover multi-word phrases: boundaries anchor
// the first and last word of the term.
func ScanForbiddenTerms(terms []string, prompt string) []string {
	var violating []string
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			// QuoteMeta makes compilation failures unreachable for literal
			// terms; skip rather than block on a malformed guide entry.
			continue
		}
		if pattern.MatchString(prompt) {
			violating = append(violating, term)
		}
	}
	return violating
}
