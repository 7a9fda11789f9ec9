package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustd/pkg/domain-errors"
)

func testUser() User {
	return User{ID: "a1b2c3d4-0000-0000-0000-000000000001", Username: "alice"}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	svc := NewTokenService("test-signing-key", "trustd", time.Hour)

	token, err := svc.IssueAccessToken(testUser(), time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, userID)
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-signing-key", "trustd", time.Hour)

	token, err := svc.IssueAccessToken(testUser(), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyAccessTokenRejectsWrongKey(t *testing.T) {
	issuer := NewTokenService("key-one", "trustd", time.Hour)
	verifier := NewTokenService("key-two", "trustd", time.Hour)

	token, err := issuer.IssueAccessToken(testUser(), time.Now())
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyAccessTokenRejectsWrongIssuer(t *testing.T) {
	issuer := NewTokenService("shared-key", "someone-else", time.Hour)
	verifier := NewTokenService("shared-key", "trustd", time.Hour)

	token, err := issuer.IssueAccessToken(testUser(), time.Now())
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-signing-key", "trustd", time.Hour)

	for _, token := range []string{"", "not.a.jwt", "a.b"} {
		_, err := svc.VerifyAccessToken(token)
		assert.Error(t, err, "token=%q", token)
	}
}
