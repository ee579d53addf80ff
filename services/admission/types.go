package admission

import (
	"fmt"
	"net/http"

	"github.com/easymo/generation-control-plane/models"
)

// AdmissionError is the failure arm of an admission decision: a tagged
// rejection the caller can branch on. Every rejection carries one of the
// models.RejectionReason codes; nothing is downgraded to a generic failure.
type AdmissionError struct {
	Reason         models.RejectionReason `json:"reason"`
	Detail         string                 `json:"detail"`
	ViolatingTerms []string               `json:"violating_terms,omitempty"`
	StatusCode     int                    `json:"status_code"`
	Retryable      bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// NewRejection creates an AdmissionError for a reason code, mapping it to
// the HTTP status the API boundary should surface.
func NewRejection(reason models.RejectionReason, detail string) *AdmissionError {
	e := &AdmissionError{
		Reason: reason,
		Detail: detail,
	}
	switch reason {
	case models.ReasonNotFound:
		e.StatusCode = http.StatusNotFound
	case models.ReasonInvalidCost:
		e.StatusCode = http.StatusBadRequest
	case models.ReasonTransientContention:
		e.StatusCode = http.StatusServiceUnavailable
		e.Retryable = true
	default:
		// Policy and budget rejections are deterministic refusals.
		e.StatusCode = http.StatusForbidden
	}
	return e
}

// WithViolatingTerms attaches the matched forbidden terms. These are for
// operator and audit surfaces; the public API boundary must not echo them
// to end users.
func (e *AdmissionError) WithViolatingTerms(terms []string) *AdmissionError {
	e.ViolatingTerms = terms
	return e
}
