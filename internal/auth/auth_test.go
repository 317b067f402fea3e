package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestSigner(at time.Time) *Signer {
	s := NewSigner("test-secret")
	s.now = func() time.Time { return at }
	return s
}

func TestUserTokenRoundTrip(t *testing.T) {
	s := newTestSigner(time.Now())
	tok, err := s.IssueUserToken("user-1", time.Hour)
	require.NoError(t, err)

	sub, err := s.VerifyUserToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestVerifyUserTokenRejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(now)

	expired, err := newTestSigner(now.Add(-2*time.Hour)).IssueUserToken("u", time.Hour)
	require.NoError(t, err)

	other, err := NewSigner("other-secret").IssueUserToken("u", 0)
	require.NoError(t, err)

	share, _, err := s.IssueShareToken("u", "s1", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSub, err := s.sign(jwt.MapClaims{"iat": now.Unix()})
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.jwt",
		"expired":      expired,
		"wrong secret": other,
		"share token":  share,
		"alg none":     none,
		"missing sub":  noSub,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.VerifyUserToken(tok)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestShareTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(now)

	tok, exp, err := s.IssueShareToken("owner", "share-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := s.VerifyShareToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "owner", claims.OwnerID)
	assert.Equal(t, "share-1", claims.ShareID)
	assert.Equal(t, exp, claims.ExpiresAt)
}

func TestShareTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, _, err := newTestSigner(now).IssueShareToken("owner", "share-1", time.Hour)
	require.NoError(t, err)

	_, err = newTestSigner(now.Add(2 * time.Hour)).VerifyShareToken(tok)
	assert.True(t, errors.Is(err, core.ErrInvalidShareToken))
}

func TestShareTokenRejectsUserToken(t *testing.T) {
	s := newTestSigner(time.Now())
	tok, err := s.IssueUserToken("owner", time.Hour)
	require.NoError(t, err)

	_, err = s.VerifyShareToken(tok)
	assert.True(t, errors.Is(err, core.ErrInvalidShareToken))
}

func TestIssueValidation(t *testing.T) {
	s := NewSigner("x")
	_, err := s.IssueUserToken("", time.Hour)
	assert.ErrorIs(t, err, core.ErrMissingUser)
	_, _, err = s.IssueShareToken("owner", "", time.Hour)
	assert.Error(t, err)
	_, _, err = s.IssueShareToken("owner", "s", 0)
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, ok := UserFrom(context.Background())
	assert.False(t, ok)

	id, ok := UserFrom(WithUser(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
