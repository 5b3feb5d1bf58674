package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fairlend/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "fairlend", "fairlend")

	token, err := svc.GenerateAccessToken("auditor-1", "auditor", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "auditor-1", claims.ActorID)
	assert.Equal(t, "auditor", claims.Role)
	assert.Equal(t, "fairlend", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService("test-signing-key", "fairlend", "fairlend")

	token, err := svc.GenerateAccessToken("auditor-1", "auditor", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewService("key-one", "fairlend", "fairlend")
	verifier := NewService("key-two", "fairlend", "fairlend")

	token, err := issuer.GenerateAccessToken("admin-1", "admin", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "fairlend", "fairlend")

	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestMiddlewareAdapter(t *testing.T) {
	svc := NewService("test-signing-key", "fairlend", "fairlend")
	adapter := NewMiddlewareAdapter(svc)

	token, err := svc.GenerateAccessToken("admin-1", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.ActorID)
	assert.Equal(t, "admin", claims.Role)
}
