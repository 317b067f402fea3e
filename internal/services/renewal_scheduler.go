package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type RenewalSchedulerConfig struct {
	// Interval between renewal runs (default: 1h).
	Interval time.Duration
	// RunTimeout bounds a single run (default: 5m).
	RunTimeout time.Duration
}

func DefaultRenewalSchedulerConfig() RenewalSchedulerConfig {
	return RenewalSchedulerConfig{
		Interval:   time.Hour,
		RunTimeout: 5 * time.Minute,
	}
}

// RenewalScheduler runs a RenewalProcessor on a fixed interval, once
// immediately on start.
type RenewalScheduler struct {
	processor *RenewalProcessor
	config    RenewalSchedulerConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRenewalScheduler(processor *RenewalProcessor, config RenewalSchedulerConfig) *RenewalScheduler {
	def := DefaultRenewalSchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = def.RunTimeout
	}
	return &RenewalScheduler{
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the run loop. Returns an error if already running.
func (s *RenewalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("renewal scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Renewal scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *RenewalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Renewal scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Renewal scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *RenewalScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done is closed when the run loop exits.
func (s *RenewalScheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

func (s *RenewalScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *RenewalScheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	booked, err := s.processor.ProcessDue(ctx, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "Renewal run finished with errors",
			"booked", booked,
			"duration", time.Since(start),
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Renewal run finished",
		"booked", booked,
		"duration", time.Since(start))
}
