package service

import (
	"testing"
	"time"

	"notehub/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-key-for-unit-tests"

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, 24*time.Hour, "notehub")
	adminID := uuid.New()

	tokenStr, expiresAt, err := svc.Generate(adminID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenStr)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Validate(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.SubjectID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestJWTTokenService_ExpiredToken(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, -1*time.Hour, "notehub")

	tokenStr, _, err := svc.Generate(uuid.New(), domain.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Validate(tokenStr)
	assert.Error(t, err)
}

func TestJWTTokenService_InvalidSignature(t *testing.T) {
	svc1 := NewJWTTokenService("secret-1", time.Hour, "notehub")
	svc2 := NewJWTTokenService("secret-2", time.Hour, "notehub")

	tokenStr, _, err := svc1.Generate(uuid.New(), domain.RoleStudent)
	require.NoError(t, err)

	_, err = svc2.Validate(tokenStr)
	assert.Error(t, err)
}

func TestJWTTokenService_WrongIssuer(t *testing.T) {
	issuer := NewJWTTokenService(testJWTSecret, time.Hour, "someone-else")
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "notehub")

	tokenStr, _, err := issuer.Generate(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Validate(tokenStr)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsUnknownRole(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "notehub")
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "superuser",
		"iss":  "notehub",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = svc.Validate(tokenStr)
	assert.ErrorContains(t, err, "invalid role")
}

func TestJWTTokenService_RejectsBadSubject(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "notehub")
	claims := jwt.MapClaims{
		"sub":  "not-a-uuid",
		"role": "student",
		"iss":  "notehub",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = svc.Validate(tokenStr)
	assert.ErrorContains(t, err, "invalid subject")
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "notehub")

	_, err := svc.Validate("not.a.valid.jwt")
	assert.Error(t, err)

	_, err = svc.Validate("")
	assert.Error(t, err)
}
