/**
 * Scheduler Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/analyzer"
	"github.com/netsentry/netsentry/internal/models"
)

// fakeSource emits n observations then blocks until ctx is cancelled.
type fakeSource struct {
	n int
}

func (f fakeSource) Start(ctx context.Context) (<-chan models.Observation, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan models.Observation, f.n)
	for i := 0; i < f.n; i++ {
		out <- models.Observation{Size: 10, Timestamp: time.Now().Unix()}
	}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, cancel
}

type fakeStore struct{}

func (fakeStore) SaveFinding(models.Finding)           {}
func (fakeStore) SaveDNS(string, string, bool)         {}
func (fakeStore) RecordDevice(string) bool             { return false }

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := Config{
		NewSource: func(iface string, d time.Duration) (Source, error) {
			return fakeSource{n: 3}, nil
		},
		NewAnalyzer: func(approved map[string]struct{}) *analyzer.Analyzer {
			return analyzer.New(fakeStore{}, analyzer.Config{}, zap.NewNop())
		},
		ScanInterval:      time.Hour,
		BlacklistInterval: time.Hour,
	}
	return New(cfg, zap.NewNop())
}

func TestStartThenStartAgainIsAlreadyRunning(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Stop()

	if status := s.Start(StartOptions{}); status != StatusScheduled {
		t.Fatalf("expected scheduled, got %q", status)
	}
	if status := s.Start(StartOptions{}); status != StatusAlreadyRunning {
		t.Fatalf("expected already_running, got %q", status)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestScheduler(t)
	s.Start(StartOptions{})

	if status := s.Stop(); status != StatusStopped {
		t.Fatalf("expected stopped, got %q", status)
	}
	if status := s.Stop(); status != StatusStopped {
		t.Fatalf("expected idempotent stopped, got %q", status)
	}
	if s.IsRunning() {
		t.Fatalf("expected not running after stop")
	}
}

func TestStopWaitsForSessionToFinish(t *testing.T) {
	s := newTestScheduler(t)
	s.Start(StartOptions{})
	s.Stop()
	if s.IsRunning() {
		t.Fatalf("expected session to have finished by the time Stop returns")
	}
}

func TestStartAgainAfterStopSucceeds(t *testing.T) {
	s := newTestScheduler(t)
	s.Start(StartOptions{})
	s.Stop()

	if status := s.Start(StartOptions{}); status != StatusScheduled {
		t.Fatalf("expected scheduled after a prior stop, got %q", status)
	}
	s.Stop()
}
