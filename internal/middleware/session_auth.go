package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

type contextKey string

const ctxCallerKey contextKey = "caller"

// Caller is the authenticated principal as asserted by the external
// session/auth provider's token.
type Caller struct {
	ID   uuid.UUID
	Role string
}

var allowedRoles = map[string]bool{
	models.RoleStudent: true,
	models.RoleParent:  true,
	models.RoleMentor:  true,
	models.RoleSystem:  true,
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// SessionAuth validates the Bearer JWT issued by the external session
// provider (HS256, shared secret) and sets the Caller into request context.
// Authorization beyond "who is calling" is the service layer's job.
func SessionAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			tok, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			claims, ok := tok.Claims.(*sessionClaims)
			if !ok {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, `{"error":"invalid token subject"}`, http.StatusUnauthorized)
				return
			}
			if !allowedRoles[claims.Role] {
				http.Error(w, `{"error":"unknown role"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxCallerKey, &Caller{ID: id, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromCtx returns the authenticated caller or nil.
func CallerFromCtx(ctx context.Context) *Caller {
	c, _ := ctx.Value(ctxCallerKey).(*Caller)
	return c
}

// WithCaller returns a context carrying the given caller. Used by tests.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, ctxCallerKey, c)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
