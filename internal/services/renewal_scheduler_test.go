package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDefaultRenewalSchedulerConfig(t *testing.T) {
	config := DefaultRenewalSchedulerConfig()

	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.RunTimeout != 5*time.Minute {
		t.Errorf("expected RunTimeout 5m, got %v", config.RunTimeout)
	}
}

func TestNewRenewalScheduler_FillsDefaults(t *testing.T) {
	s := NewRenewalScheduler(nil, RenewalSchedulerConfig{Interval: 5 * time.Second})

	if s.config.Interval != 5*time.Second {
		t.Errorf("expected custom Interval 5s, got %v", s.config.Interval)
	}
	if s.config.RunTimeout != 5*time.Minute {
		t.Errorf("expected default RunTimeout, got %v", s.config.RunTimeout)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestRenewalScheduler_StopNotRunning(t *testing.T) {
	s := NewRenewalScheduler(nil, DefaultRenewalSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestRenewalScheduler_RunsOnStart(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	if _, err := svc.AddSubscription(ctx, "u1", subscription("Music", 999, core.Monthly, core.NewDate(2025, 3, 1))); err != nil {
		t.Fatal(err)
	}

	s := NewRenewalScheduler(NewRenewalProcessor(store, svc), RenewalSchedulerConfig{Interval: time.Hour})
	s.now = func() time.Time { return testNow }

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		txs, _ := store.ListTransactions(ctx, "u1")
		if len(txs) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one booked renewal, got %d", len(txs))
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}
