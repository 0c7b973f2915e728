package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dalada-backend/internal/model"
	"dalada-backend/internal/token"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "userID"
	ctxKeyRole   contextKey = "role"
)

// UserIDFromContext returns the authenticated user's ID, or "" when the
// request did not pass the auth middleware.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// RoleFromContext returns the authenticated user's role.
func RoleFromContext(ctx context.Context) model.Role {
	role, _ := ctx.Value(ctxKeyRole).(model.Role)
	return role
}

// AuthMiddleware verifies bearer access tokens and stashes the caller's
// identity in the request context.
type AuthMiddleware struct {
	issuer *token.Issuer
	logger *zap.Logger
}

func NewAuthMiddleware(issuer *token.Issuer, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, logger: logger}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondWithError(w, m.logger, http.StatusUnauthorized,
				errors.New("missing bearer token"), "Authentication required")
			return
		}

		claims, err := m.issuer.VerifyAccess(raw)
		if err != nil {
			respondWithError(w, m.logger, http.StatusUnauthorized,
				errors.New("invalid or expired token"), "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
