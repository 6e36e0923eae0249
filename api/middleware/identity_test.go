package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	pkgAuth "github.com/angelmondragon/bulkwear-backend/pkg/auth"
	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

var (
	testJWT  = config.JWTConfig{Secret: "secret", Issuer: "bulkwear-identity"}
	testCart = config.CartConfig{CookieName: "session_id", CookieMaxAge: 720 * time.Hour}
)

func mintTestToken(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	now := time.Now()
	claims := pkgAuth.AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	return signed
}

func captureIdentity(captured *identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner, ok := IdentityFromContext(r.Context()); ok {
			*captured = owner
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityMintsAnonymousSessionCookie(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWT, testCart, nil)(captureIdentity(&captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identity.KindAnonymous, captured.Kind())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int((720 * time.Hour).Seconds()), cookies[0].MaxAge)

	token, _ := captured.SessionToken()
	assert.Equal(t, cookies[0].Value, token)
}

func TestIdentityReusesExistingCookie(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWT, testCart, nil)(captureIdentity(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	token, ok := captured.SessionToken()
	require.True(t, ok)
	assert.Equal(t, "existing-token", token)
}

func TestIdentityAcceptsBearerToken(t *testing.T) {
	userID := uuid.New()
	var captured identity.Identity
	handler := Identity(testJWT, testCart, nil)(captureIdentity(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, userID, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got, ok := captured.UserID()
	require.True(t, ok)
	assert.Equal(t, userID, got)
	assert.Empty(t, rec.Result().Cookies())
}

func TestIdentityRejectsInvalidBearer(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWT, testCart, nil)(captureIdentity(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.IsValid())
}

func TestRequireRole(t *testing.T) {
	chain := func() http.Handler {
		return Identity(testJWT, testCart, nil)(RequireRole(enums.UserRoleAdmin, nil)(okHandler()))
	}

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		chain().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stock/low", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stock/low", nil)
		req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New(), enums.UserRoleCustomer))
		rec := httptest.NewRecorder()
		chain().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stock/low", nil)
		req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New(), enums.UserRoleAdmin))
		rec := httptest.NewRecorder()
		chain().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
