package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-app/server/src/errs"
)

const testKey = "test-signing-key"

func newVerifier(t *testing.T) *TokenVerifier {
	t.Helper()
	return NewTokenVerifier([]byte(testKey), []byte("automation-secret"), time.Hour)
}

func signToken(t *testing.T, key string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestVerifyUserToken(t *testing.T) {
	v := newVerifier(t)
	userID := uuid.New()

	token, exp, err := v.IssueToken(userID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	got, err := v.Verify(context.Background(), token, "")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyUserTokenIgnoresTargetUser(t *testing.T) {
	v := newVerifier(t)
	userID := uuid.New()
	token, _, err := v.IssueToken(userID)
	require.NoError(t, err)

	// The token is the trust boundary; a supplied target does not override it.
	got, err := v.Verify(context.Background(), token, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := newVerifier(t)
	token := signToken(t, "some-other-key", jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.Verify(context.Background(), token, "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newVerifier(t)
	token := signToken(t, testKey, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	_, err := v.Verify(context.Background(), token, "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyRejectsNonUUIDSubject(t *testing.T) {
	v := newVerifier(t)
	token := signToken(t, testKey, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.Verify(context.Background(), token, "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyEmptyToken(t *testing.T) {
	v := newVerifier(t)
	_, err := v.Verify(context.Background(), "", "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyAutomationSecret(t *testing.T) {
	v := newVerifier(t)
	target := uuid.New()

	// Without a target user the privileged credential always fails.
	_, err := v.Verify(context.Background(), "automation-secret", "")
	assert.ErrorIs(t, err, errs.ErrMissingTargetUser)

	got, err := v.Verify(context.Background(), "automation-secret", target.String())
	require.NoError(t, err)
	assert.Equal(t, target, got)

	_, err = v.Verify(context.Background(), "automation-secret", "garbage")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestAutomationDisabledWhenSecretEmpty(t *testing.T) {
	v := NewTokenVerifier([]byte(testKey), nil, time.Hour)

	_, err := v.Verify(context.Background(), "automation-secret", uuid.NewString())
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}
