package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-angel-http-service/config"
)

func TestJWTGenerateAndExtract(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})

	token, err := svc.GenerateToken(42, "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "guardian-angel-http-service", claims.Issuer)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(&config.Config{JWTSecretKey: "secret-a"})
	verifier := NewJWTService(&config.Config{JWTSecretKey: "secret-b"})

	token, err := issuer.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
