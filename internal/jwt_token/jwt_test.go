package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "saathi")
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "saathi", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "saathi")

	token, err := svc.GenerateAccessToken(id.NewUserID(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongKey(t *testing.T) {
	svc := NewJWTService("test-signing-key", "saathi")
	other := NewJWTService("different-key", "saathi")

	token, err := svc.GenerateAccessToken(id.NewUserID(), time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbageToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "saathi")

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAdapterMapsClaims(t *testing.T) {
	svc := NewJWTService("test-signing-key", "saathi")
	adapter := NewJWTServiceAdapter(svc)
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
}
