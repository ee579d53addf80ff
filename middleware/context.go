package middleware

import (
	"context"

	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for service token claims
	ClaimsKey contextKey = "claims"

	// RequesterIDKey is the context key for the requester ID carried by the token
	RequesterIDKey contextKey = "requester_id"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves service token claims from context
func GetClaimsFromContext(ctx context.Context) *ServiceClaims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*ServiceClaims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds service token claims to the context
func WithClaims(ctx context.Context, claims *ServiceClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetRequesterIDFromContext retrieves the requester ID from context
func GetRequesterIDFromContext(ctx context.Context) *uuid.UUID {
	if val := ctx.Value(RequesterIDKey); val != nil {
		if requesterID, ok := val.(*uuid.UUID); ok {
			return requesterID
		}
	}
	return nil
}

// WithRequesterID adds a requester ID to the context
func WithRequesterID(ctx context.Context, requesterID *uuid.UUID) context.Context {
	return context.WithValue(ctx, RequesterIDKey, requesterID)
}
