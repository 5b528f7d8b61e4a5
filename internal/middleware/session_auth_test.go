package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, subject, role string, expires time.Time) string {
	t.Helper()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestSessionAuth(t *testing.T) {
	userID := uuid.New()
	future := time.Now().Add(time.Hour)

	var gotCaller *Caller
	protected := SessionAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = CallerFromCtx(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + signToken(t, testSecret, userID.String(), models.RoleParent, future),
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			authHeader: "Bearer " + signToken(t, []byte("other-secret"), userID.String(), models.RoleParent, future),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + signToken(t, testSecret, userID.String(), models.RoleParent, time.Now().Add(-time.Minute)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "subject is not a uuid",
			authHeader: "Bearer " + signToken(t, testSecret, "not-a-uuid", models.RoleParent, future),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown role",
			authHeader: "Bearer " + signToken(t, testSecret, userID.String(), "admin", future),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotCaller = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/spending-requests", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusNoContent {
				if gotCaller == nil {
					t.Fatal("caller missing from context")
				}
				if gotCaller.ID != userID || gotCaller.Role != models.RoleParent {
					t.Errorf("caller: got %+v", gotCaller)
				}
			} else if gotCaller != nil {
				t.Error("handler ran despite rejected token")
			}
		})
	}
}

func TestCallerFromCtxWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c := CallerFromCtx(req.Context()); c != nil {
		t.Errorf("expected nil caller, got %+v", c)
	}
}
