package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// ShareGrant is a stored share together with the token that opens it.
type ShareGrant struct {
	Share     core.Share `json:"share"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// ShareDashboard grants email read-only access to the owner's dashboard.
func (s *FinanceService) ShareDashboard(ctx context.Context, ownerID, email string) (ShareGrant, error) {
	if err := requireUser(ownerID); err != nil {
		return ShareGrant{}, err
	}
	if s.signer == nil {
		return ShareGrant{}, ErrSharingDisabled
	}
	sh := core.Share{
		OwnerID:     ownerID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		AccessLevel: core.ReadOnly,
		CreatedAt:   s.now(),
	}
	if err := sh.Validate(); err != nil {
		return ShareGrant{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	saved, err := s.store.AddShare(ctx, sh)
	if err != nil {
		return ShareGrant{}, fmt.Errorf("save share: %w", err)
	}
	token, exp, err := s.signer.IssueShareToken(ownerID, saved.ID, s.shareTTL)
	if err != nil {
		return ShareGrant{}, fmt.Errorf("issue share token: %w", err)
	}
	slog.InfoContext(ctx, "Dashboard shared", "owner_id", ownerID, "share_id", saved.ID, "expires_at", exp)
	return ShareGrant{Share: saved, Token: token, ExpiresAt: exp}, nil
}

func (s *FinanceService) ListShares(ctx context.Context, ownerID string) ([]core.Share, error) {
	if err := requireUser(ownerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	shares, err := s.store.ListShares(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

// RevokeShare is idempotent; the first revocation time is kept.
func (s *FinanceService) RevokeShare(ctx context.Context, ownerID, id string) error {
	if err := requireUser(ownerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.RevokeShare(ctx, ownerID, id, s.now()); err != nil {
		return fmt.Errorf("revoke share %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Share revoked", "owner_id", ownerID, "share_id", id)
	return nil
}

// SharedDashboard opens the owner's current monthly dashboard for a share
// token. The token must verify and its share must still be active.
func (s *FinanceService) SharedDashboard(ctx context.Context, token string) (analytics.Dashboard, core.Share, error) {
	if s.signer == nil {
		return analytics.Dashboard{}, core.Share{}, ErrSharingDisabled
	}
	claims, err := s.signer.VerifyShareToken(token)
	if err != nil {
		return analytics.Dashboard{}, core.Share{}, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	sh, err := s.store.GetShare(lookupCtx, claims.OwnerID, claims.ShareID)
	if errors.Is(err, core.ErrNotFound) {
		return analytics.Dashboard{}, core.Share{}, fmt.Errorf("share %s: %w", claims.ShareID, core.ErrInvalidShareToken)
	}
	if err != nil {
		return analytics.Dashboard{}, core.Share{}, fmt.Errorf("get share: %w", err)
	}
	if !sh.Active() {
		return analytics.Dashboard{}, core.Share{}, core.ErrShareRevoked
	}

	d, err := s.Dashboard(ctx, claims.OwnerID, analytics.Monthly, "")
	if err != nil {
		return analytics.Dashboard{}, core.Share{}, err
	}
	return d, sh, nil
}
