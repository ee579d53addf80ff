package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeBudget          ErrorType = "budget"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypePolicyViolation ErrorType = "policy_violation"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrCampaignNotFound   = NewDomainError(ErrorTypeNotFound, "campaign not found", nil)
	ErrFigureNotFound     = NewDomainError(ErrorTypeNotFound, "figure not found", nil)
	ErrBrandGuideNotFound = NewDomainError(ErrorTypeNotFound, "brand guide not found", nil)
	ErrLedgerRowNotFound  = NewDomainError(ErrorTypeNotFound, "generation limit not found", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyPrompt  = NewDomainError(ErrorTypeValidation, "prompt cannot be empty", nil)
	ErrNegativeCost = NewDomainError(ErrorTypeValidation, "estimated cost must not be negative", nil)

	// Permission Errors
	ErrForbidden      = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrTenantMismatch = NewDomainError(ErrorTypeForbidden, "tenant mismatch", nil)

	// Budget Errors
	ErrDailyCapExceeded = NewDomainError(ErrorTypeBudget, "daily cost cap exceeded", nil)

	// Conflict Errors
	ErrLedgerContention = NewDomainError(ErrorTypeConflict, "concurrent ledger update detected", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsBudgetError checks if an error is a budget error
func IsBudgetError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeBudget
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the Details map of a domain error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
