package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/auth"
	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-that-is-long-enough!", time.Hour)
}

func TestJWTMiddleware_ValidTokenPutsClaimsInContext(t *testing.T) {
	tm := newTokenManager()
	userID := uuid.New()
	token, _, err := tm.GenerateToken(userID, domain.RoleScanner)
	require.NoError(t, err)

	var gotClaims *auth.Claims
	handler := JWTMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, userID, gotClaims.UserID)
	assert.Equal(t, domain.RoleScanner, gotClaims.Role)
}

func TestJWTMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	tm := newTokenManager()
	handler := JWTMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	cases := map[string]string{
		"missing":      "",
		"no bearer":    "token-without-scheme",
		"wrong scheme": "Basic abc123",
		"garbage":      "Bearer not.a.token",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tm := newTokenManager()
	token, _, err := tm.GenerateToken(uuid.New(), domain.RoleRider)
	require.NoError(t, err)

	var reached bool
	protected := JWTMiddleware(tm)(RequireRole(domain.RoleScanner, domain.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}),
	))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)

	scannerToken, _, err := tm.GenerateToken(uuid.New(), domain.RoleScanner)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+scannerToken)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireRole_WithoutClaimsIsUnauthorized(t *testing.T) {
	handler := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
