package models

import "github.com/google/uuid"

// RejectionReason identifies why an admission request was refused. Reasons
// are stable API values: callers branch on them and the audit trail stores
// them verbatim.
type RejectionReason string

const (
	ReasonNotFound            RejectionReason = "not_found"
	ReasonKillSwitch          RejectionReason = "kill_switch"
	ReasonRightsNotStarted    RejectionReason = "rights_not_started"
	ReasonRightsExpired       RejectionReason = "rights_expired"
	ReasonCountryNotAllowed   RejectionReason = "country_not_allowed"
	ReasonRegionNotAllowed    RejectionReason = "region_not_allowed"
	ReasonTermsViolation      RejectionReason = "terms_violation"
	ReasonInvalidCost         RejectionReason = "invalid_cost"
	ReasonDailyCapExceeded    RejectionReason = "daily_cap_exceeded"
	ReasonTransientContention RejectionReason = "transient_contention"
)

// AppliedPolicies records which policy records shaped an admitted prompt.
type AppliedPolicies struct {
	CampaignID     uuid.UUID  `json:"campaign_id"`
	BrandGuideID   *uuid.UUID `json:"brand_guide_id,omitempty"`
	FigureID       uuid.UUID  `json:"figure_id"`
	ForbiddenTerms []string   `json:"forbidden_terms"`
}

// AdmissionDecision is the success arm of an admission verdict. The job id is
// opaque and random: the same prompt may legitimately be admitted as many
// distinct jobs, so it is never derived from the prompt fingerprint.
type AdmissionDecision struct {
	JobID           string          `json:"job_id"`
	FinalPrompt     string          `json:"final_prompt"`
	PromptHash      string          `json:"prompt_hash"`
	AppliedPolicies AppliedPolicies `json:"applied_policies"`
}
