package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func TestShareDashboardLifecycle(t *testing.T) {
	ctx := context.Background()
	signer := auth.NewSigner("test-secret-with-enough-bytes")
	svc, _, _ := newTestService(t, WithSigner(signer, time.Hour))

	_, err := svc.AddTransaction(ctx, "owner", income(1000, core.NewDate(2025, 3, 1)))
	require.NoError(t, err)

	grant, err := svc.ShareDashboard(ctx, "owner", " Friend@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "friend@example.com", grant.Share.Email)
	assert.Equal(t, core.ReadOnly, grant.Share.AccessLevel)
	assert.NotEmpty(t, grant.Token)

	d, sh, err := svc.SharedDashboard(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, grant.Share.ID, sh.ID)
	assert.Equal(t, core.Cents(1000), d.Summary.Income)

	shares, err := svc.ListShares(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, shares, 1)

	require.NoError(t, svc.RevokeShare(ctx, "owner", grant.Share.ID))
	_, _, err = svc.SharedDashboard(ctx, grant.Token)
	assert.ErrorIs(t, err, core.ErrShareRevoked)

	assert.ErrorIs(t, svc.RevokeShare(ctx, "someone-else", grant.Share.ID), core.ErrNotFound)
}

func TestSharedDashboard_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	signer := auth.NewSigner("test-secret-with-enough-bytes")
	svc, _, _ := newTestService(t, WithSigner(signer, time.Hour))

	_, _, err := svc.SharedDashboard(ctx, "not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidShareToken)

	other := auth.NewSigner("a-different-secret-entirely")
	forged, _, err := other.IssueShareToken("owner", "s1", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.SharedDashboard(ctx, forged)
	assert.ErrorIs(t, err, core.ErrInvalidShareToken)

	// Valid signature but no such share.
	orphan, _, err := signer.IssueShareToken("owner", "missing", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.SharedDashboard(ctx, orphan)
	assert.ErrorIs(t, err, core.ErrInvalidShareToken)

	userToken, err := signer.IssueUserToken("owner", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.SharedDashboard(ctx, userToken)
	assert.ErrorIs(t, err, core.ErrInvalidShareToken)
}

func TestShareDashboard_Rejects(t *testing.T) {
	ctx := context.Background()

	disabled, _, _ := newTestService(t)
	_, err := disabled.ShareDashboard(ctx, "owner", "a@b.co")
	assert.ErrorIs(t, err, ErrSharingDisabled)

	svc, _, _ := newTestService(t, WithSigner(auth.NewSigner("test-secret-with-enough-bytes"), 0))
	_, err = svc.ShareDashboard(ctx, "owner", "not an email")
	assert.ErrorIs(t, err, core.ErrInvalidEmail)
}
