package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/utils"
)

// ServiceClaims are the claims carried by a service-to-service token. The
// subject names the calling service; requester_id optionally identifies the
// end user the call is made on behalf of.
type ServiceClaims struct {
	RequesterID string `json:"requester_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HMAC-signed service tokens on inbound requests.
type AuthMiddleware struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(secret, issuer string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
	}
}

// RequireServiceToken is a middleware that requires a valid service token
func (m *AuthMiddleware) RequireServiceToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing service token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validateToken(token)
		if err != nil {
			m.logger.Warn("service token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)

		// Propagate the requester identity when the token carries one.
		if claims.RequesterID != "" {
			requesterID, err := uuid.Parse(claims.RequesterID)
			if err != nil {
				m.logger.Warn("invalid requester_id in claims",
					zap.String("request_id", requestID),
					zap.String("requester_id", claims.RequesterID))
			} else {
				ctx = WithRequesterID(ctx, &requesterID)
			}
		}

		m.logger.Debug("service authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken parses and verifies a service token
func (m *AuthMiddleware) validateToken(tokenString string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
