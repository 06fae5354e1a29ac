// Package auth verifies the bearer credentials accepted by the WebSocket
// session and the REST layer: end-user HS256 tokens and the shared-secret
// automation credential.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/daybook-app/server/src/errs"
)

// TokenVerifier resolves bearer credentials to user identities and mints
// access tokens for the login flow.
type TokenVerifier struct {
	signKey          []byte
	automationSecret []byte
	accessTTL        time.Duration
}

// NewTokenVerifier constructs a verifier. automationSecret may be empty to
// disable the privileged credential entirely.
func NewTokenVerifier(signKey, automationSecret []byte, accessTTL time.Duration) *TokenVerifier {
	return &TokenVerifier{signKey: signKey, automationSecret: automationSecret, accessTTL: accessTTL}
}

// Verify resolves a credential to a user identity.
//
// A token matching the automation secret is not user-scoped and requires an
// explicit target user; its absence is an authentication failure. Any other
// token is treated as an end-user JWT whose Subject claim is the identity,
// and a supplied target user is ignored.
func (v *TokenVerifier) Verify(ctx context.Context, token, targetUserID string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errs.ErrInvalidCredential
	}

	if len(v.automationSecret) > 0 && subtle.ConstantTimeCompare([]byte(token), v.automationSecret) == 1 {
		if targetUserID == "" {
			return uuid.Nil, errs.ErrMissingTargetUser
		}
		uid, err := uuid.Parse(targetUserID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: malformed target user id", errs.ErrInvalidCredential)
		}
		return uid, nil
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errs.ErrInvalidCredential
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrInvalidCredential
	}
	return uid, nil
}

// IssueToken creates a signed HS256 access token for the given subject.
func (v *TokenVerifier) IssueToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(v.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(v.signKey)
	return signed, exp, err
}
