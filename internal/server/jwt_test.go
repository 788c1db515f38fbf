package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: expirationHours})
}

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestJWTService_SubjectOnlyToken(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()
	now := time.Now()

	token := sign(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())
}

func TestJWTService_Rejections(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()
	now := time.Now()
	valid := func() *Claims {
		return &Claims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	noUser := valid()
	noUser.UserID = uuid.Nil

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{name: "empty", token: "", wantErr: "empty"},
		{name: "one part", token: "invalid", wantErr: "malformed"},
		{name: "four parts", token: "invalid.token.format.extra", wantErr: "malformed"},
		{name: "wrong secret", token: sign(t, "different-secret-key-for-jwt-signing", jwt.SigningMethodHS256, valid()), wantErr: "signature"},
		{name: "wrong algorithm", token: sign(t, testSecret, jwt.SigningMethodHS512, valid()), wantErr: "failed to parse"},
		{name: "expired", token: sign(t, testSecret, jwt.SigningMethodHS256, expired), wantErr: "expired"},
		{name: "no expiry", token: sign(t, testSecret, jwt.SigningMethodHS256, noExpiry), wantErr: "failed to parse"},
		{name: "no user", token: sign(t, testSecret, jwt.SigningMethodHS256, noUser), wantErr: "no user id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJWTService_Issuer(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: testSecret, Issuer: "https://auth.example.com", ExpirationHours: 1})
	userID := uuid.New()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	require.NoError(t, err)

	foreign := sign(t, testSecret, jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://elsewhere.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err = service.ValidateToken(foreign)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer")
}

func TestJWTService_ExpiryUsesClock(t *testing.T) {
	service := setupTestJWTService(t, 1)
	start := time.Now()
	service.now = func() time.Time { return start }

	token, err := service.GenerateToken(uuid.New())
	require.NoError(t, err)

	service.now = func() time.Time { return start.Add(59 * time.Minute) }
	_, err = service.ValidateToken(token)
	require.NoError(t, err)

	service.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
