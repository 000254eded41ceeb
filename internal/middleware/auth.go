package middleware

import (
	"context"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/authflow/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
	// TokenIDKey is the context key for the session token ID.
	TokenIDKey contextKey = "token_id"
	// TokenExpiryKey is the context key for the session token expiry.
	TokenExpiryKey contextKey = "token_expiry"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// GetToken returns the session token ID and expiry from the context.
func GetToken(ctx context.Context) (string, time.Time) {
	id, _ := ctx.Value(TokenIDKey).(string)
	expiry, _ := ctx.Value(TokenExpiryKey).(time.Time)
	return id, expiry
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth returns an interceptor that validates JWT tokens on the given
// procedures. Other procedures pass through untouched.
// It extracts the token from the Authorization header, validates it, rejects
// revoked tokens, and adds the user and token details to the request context.
func RequireAuth(jwtManager *auth.JWTManager, revocations RevocationChecker, procedures ...string) connect.UnaryInterceptorFunc {
	protected := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		protected[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !protected[req.Spec().Procedure] {
				return next(ctx, req)
			}

			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}
			tokenString := parts[1]

			// Validate token
			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			revoked, err := revocations.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			if revoked {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrRevokedToken)
			}

			// Add user info to context
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, TokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, TokenExpiryKey, claims.ExpiresAt.Time)
			}

			// Call the next handler with enriched context
			return next(ctx, req)
		}
	}
}
