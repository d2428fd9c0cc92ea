/**
 * Dynamic-Scan Scheduler.
 *
 * Owns the lifecycle of a capture+analyze Session: a fixed-interval
 * scan job that starts at most one Session at a time, plus a periodic
 * blacklist-feed refresh job. Grounded on
 * original_source/src/dynamic_scan/scheduler.py's
 * DynamicScanScheduler (APScheduler interval jobs, max_instances=1,
 * gather/cancel on stop), translated to time.Ticker + context
 * cancellation since no APScheduler-equivalent library appears
 * anywhere in the retrieval pack. See spec.md §4.5/§9.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/analyzer"
	"github.com/netsentry/netsentry/internal/blacklist"
	"github.com/netsentry/netsentry/internal/models"
)

// Status values returned by Start/Stop, per spec.md §6's HTTP contract.
const (
	StatusScheduled      = "scheduled"
	StatusAlreadyRunning = "already_running"
	StatusStopped        = "stopped"
)

// Source is the subset of capture.Source the Scheduler depends on.
// Kept narrow so Session can be driven by a fake producer in tests
// without a real pcap handle.
type Source interface {
	Start(ctx context.Context) (<-chan models.Observation, context.CancelFunc)
}

// SourceFactory builds a Source bound to interfaceName, configured to
// run for at most duration (zero means unbounded -- spec.md §4.1).
type SourceFactory func(interfaceName string, duration time.Duration) (Source, error)

// AnalyzerFactory builds a fresh Analyzer for one Session. A nil
// approvedMacs means the start request carried no `approved_macs`
// override (spec.md §6) -- the factory should fall back to the
// startup-loaded approved-device set. A non-nil (possibly empty) map
// is an explicit per-request override.
type AnalyzerFactory func(approvedMacs map[string]struct{}) *analyzer.Analyzer

// StartOptions mirrors the POST /scan/dynamic/start request body.
type StartOptions struct {
	Interface    string
	Duration     time.Duration
	ApprovedMacs []string
	Interval     time.Duration // overrides the configured scan interval, if set
}

// Config bundles the Scheduler's fixed tunables and collaborators.
type Config struct {
	NewSource    SourceFactory
	NewAnalyzer  AnalyzerFactory
	Updater      *blacklist.Updater
	BlacklistURL string // empty disables the blacklist job (spec.md §4.5)
	BlacklistPath string
	BlacklistInterval time.Duration // default 12h
	ScanInterval      time.Duration // default 3600s
	DefaultInterface  string
	DefaultDuration   time.Duration
}

// Scheduler is the Idle/Running state machine spec.md §4.5 describes.
// start while Running is a no-op returning StatusAlreadyRunning; stop
// cancels the in-flight Session and waits for both capture and analyze
// tasks to finish before returning, and is idempotent.
type Scheduler struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	jobsCancel context.CancelFunc
}

// New builds a Scheduler. cfg.NewSource and cfg.NewAnalyzer must be
// non-nil; zero intervals fall back to the spec defaults.
func New(cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Hour
	}
	if cfg.BlacklistInterval <= 0 {
		cfg.BlacklistInterval = 12 * time.Hour
	}
	return &Scheduler{cfg: cfg, log: log}
}

// Run starts the periodic scan job (at cfg.ScanInterval, using
// cfg.DefaultInterface/DefaultDuration) and, if cfg.BlacklistURL is
// set, the periodic blacklist-refresh job. Both run until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.jobsCancel = cancel
	s.mu.Unlock()

	go s.runScanJob(ctx)
	if s.cfg.BlacklistURL != "" {
		go s.runBlacklistJob(ctx)
	}
}

// StopJobs cancels the periodic tickers Run started (but does not, by
// itself, stop an in-flight Session -- call Stop for that).
func (s *Scheduler) StopJobs() {
	s.mu.Lock()
	cancel := s.jobsCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Scheduler) runScanJob(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := s.Start(StartOptions{
				Interface: s.cfg.DefaultInterface,
				Duration:  s.cfg.DefaultDuration,
			})
			if status == StatusAlreadyRunning {
				s.log.Info("scheduler: scan tick suppressed, session already running")
			}
		}
	}
}

func (s *Scheduler) runBlacklistJob(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BlacklistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cfg.Updater.Update(s.cfg.BlacklistURL, s.cfg.BlacklistPath)
		}
	}
}

// Start begins one Session (packet source + analyzer, coupled by an
// in-process channel) unless one is already running, in which case it
// is a no-op returning StatusAlreadyRunning. A panic or error
// constructing the source is logged and contained -- it never crashes
// the scheduler or a subsequent scheduled run (spec.md §4.5/§7). In
// that case no Session starts and Start also returns
// StatusAlreadyRunning.
func (s *Scheduler) Start(opts StartOptions) string {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return StatusAlreadyRunning
	}

	iface := opts.Interface
	if iface == "" {
		iface = s.cfg.DefaultInterface
	}
	duration := opts.Duration
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}

	var src Source
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("packet source constructor panicked: %v", r)
			}
		}()
		src, err = s.cfg.NewSource(iface, duration)
	}()
	if err != nil {
		s.mu.Unlock()
		s.log.Error("scheduler: failed to start packet source", zap.Error(err), zap.String("interface", iface))
		return StatusAlreadyRunning
	}

	var approved map[string]struct{}
	if opts.ApprovedMacs != nil {
		approved = approvedSet(opts.ApprovedMacs)
	}
	a := s.cfg.NewAnalyzer(approved)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.runSession(ctx, src, a, done)

	return StatusScheduled
}

// runSession drives one capture+analyze pair to completion. Stopping
// cancels the Source first (no new packets), lets the Analyzer drain
// and observe the channel close, then returns -- spec.md §5's
// cancellation ordering.
func (s *Scheduler) runSession(ctx context.Context, src Source, a *analyzer.Analyzer, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduler: scan session panicked", zap.Any("recover", r))
		}
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	obsCh, sourceCancel := src.Start(ctx)
	defer sourceCancel()

	// The Analyzer is not bound to ctx: it keeps consuming until the
	// Source, cancelled through ctx, closes obsCh.
	a.Run(context.Background(), obsCh)
}

// Stop cancels the in-flight Session and waits for it to finish before
// returning StatusStopped. Calling Stop when idle is a no-op and still
// returns StatusStopped (idempotent per spec.md §4.5).
func (s *Scheduler) Stop() string {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return StatusStopped
}

// IsRunning reports whether a Session is currently active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func approvedSet(macs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(macs))
	for _, m := range macs {
		out[strings.ToLower(m)] = struct{}{}
	}
	return out
}
