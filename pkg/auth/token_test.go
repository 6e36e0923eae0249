package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

func signClaims(t *testing.T, method jwt.SigningMethod, secret string, claims AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims(cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) AccessTokenClaims {
	now := time.Now()
	return AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "bulkwear-identity"}
	userID := uuid.New()

	token := signClaims(t, jwt.SigningMethodHS256, cfg.Secret, validClaims(cfg, userID, enums.UserRoleAdmin))
	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.UserRoleAdmin, claims.Role)
}

func TestParseAccessTokenDefaultsUnknownRole(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "bulkwear-identity"}
	token := signClaims(t, jwt.SigningMethodHS256, cfg.Secret, validClaims(cfg, uuid.New(), enums.UserRole("superuser")))

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "bulkwear-identity"}
	userID := uuid.New()

	expired := validClaims(cfg, userID, enums.UserRoleCustomer)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims(cfg, userID, enums.UserRoleCustomer)
	noExpiry.ExpiresAt = nil

	otherIssuer := validClaims(cfg, userID, enums.UserRoleCustomer)
	otherIssuer.Issuer = "someone-else"

	cases := map[string]string{
		"wrong secret": signClaims(t, jwt.SigningMethodHS256, "other", validClaims(cfg, userID, enums.UserRoleCustomer)),
		"wrong method": signClaims(t, jwt.SigningMethodHS512, cfg.Secret, validClaims(cfg, userID, enums.UserRoleCustomer)),
		"expired":      signClaims(t, jwt.SigningMethodHS256, cfg.Secret, expired),
		"no expiry":    signClaims(t, jwt.SigningMethodHS256, cfg.Secret, noExpiry),
		"other issuer": signClaims(t, jwt.SigningMethodHS256, cfg.Secret, otherIssuer),
		"missing user": signClaims(t, jwt.SigningMethodHS256, cfg.Secret, validClaims(cfg, uuid.Nil, enums.UserRoleCustomer)),
		"not a jwt":    "definitely-not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(cfg, token)
			assert.Error(t, err)
		})
	}

	_, err := ParseAccessToken(config.JWTConfig{}, "x")
	assert.Error(t, err)
}
