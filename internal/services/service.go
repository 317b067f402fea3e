// Package services orchestrates the store, the analytics core and the
// outbound ports behind the operations the API and the workers expose.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/ports"
)

const (
	storeTimeout    = 7 * time.Second
	defaultShareTTL = 30 * 24 * time.Hour
	copyConcurrency = 4
)

var (
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrSharingDisabled = errors.New("dashboard sharing is not configured")
)

// FinanceService is safe for concurrent use.
type FinanceService struct {
	store      ports.Store
	events     ports.EventPublisher
	signer     *auth.Signer
	shareTTL   time.Duration
	currencies *currency.Table
	dashboards cache.Cache[analytics.Dashboard]
	flight     singleflight.Group
	now        func() time.Time

	genMu       sync.Mutex
	generations map[string]uint64
}

type Option func(*FinanceService)

// WithEvents publishes a TransactionEvent after every transaction write.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *FinanceService) { s.events = p }
}

// WithSigner enables dashboard sharing. A zero ttl uses 30 days.
func WithSigner(signer *auth.Signer, ttl time.Duration) Option {
	return func(s *FinanceService) {
		s.signer = signer
		if ttl > 0 {
			s.shareTTL = ttl
		}
	}
}

// WithDashboardCache caches computed dashboards per user, period and month.
func WithDashboardCache(c cache.Cache[analytics.Dashboard]) Option {
	return func(s *FinanceService) { s.dashboards = c }
}

func WithCurrencies(t *currency.Table) Option {
	return func(s *FinanceService) { s.currencies = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

func NewFinanceService(store ports.Store, opts ...Option) *FinanceService {
	s := &FinanceService{
		store:       store,
		shareTTL:    defaultShareTTL,
		currencies:  currency.Default,
		now:         func() time.Time { return time.Now().UTC() },
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FinanceService) Currencies() *currency.Table {
	return s.currencies
}

// Now is the service clock; callers use it for defaults such as today's date.
func (s *FinanceService) Now() time.Time {
	return s.now()
}

// Ping checks that the backing store is reachable.
func (s *FinanceService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func requireUser(userID string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	return nil
}

// invalidate drops the user's cached views and bumps their generation so an
// in-flight computation started before the write is not cached.
func (s *FinanceService) invalidate(userID string) {
	s.genMu.Lock()
	s.generations[userID]++
	s.genMu.Unlock()
	if s.dashboards != nil {
		s.dashboards.DeletePrefix(userID + "|")
	}
}

func (s *FinanceService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// publish never fails the caller: the write is already stored.
func (s *FinanceService) publish(ctx context.Context, kind core.EventKind, tx core.Transaction) {
	s.publishEvent(ctx, core.NewTransactionEvent(kind, tx, s.now()))
}

func (s *FinanceService) publishEvent(ctx context.Context, evt core.TransactionEvent) {
	if s.events == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "kind", evt.Kind)
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", evt.Kind,
			"transaction_id", evt.TransactionID,
			"user_id", evt.UserID,
			"error", err)
	}
}

// load fetches a user's transactions and categories concurrently.
func (s *FinanceService) load(ctx context.Context, userID string) ([]core.Transaction, []core.Category, error) {
	var (
		txs  []core.Transaction
		cats []core.Category
	)
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = s.store.ListCategories(gctx, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, cats, nil
}
