package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Claims carried by an access token. The platform's identity service issues
// these; this engine only reads them.
type Claims struct {
	jwt.StandardClaims
	OrgID string `json:"org_id"`
}

type contextKey string

const (
	userIDKey contextKey = "auth_user_id"
	orgIDKey  contextKey = "auth_org_id"
)

// Middleware validates the Bearer token and stores the caller's user and
// organization ids in the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid or expired token")
				return
			}

			orgID, err := uuid.Parse(claims.OrgID)
			if err != nil {
				unauthorized(w, "token missing organization context")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, orgIDKey, orgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerOrg returns the authenticated caller's organization id.
func CallerOrg(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(orgIDKey).(uuid.UUID)
	return id, ok
}

// CallerUser returns the authenticated caller's user id.
func CallerUser(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithCaller injects caller identity into a context. Exposed for tests.
func WithCaller(ctx context.Context, userID string, orgID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, orgIDKey, orgID)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
