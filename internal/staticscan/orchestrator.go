/**
 * Static-Scan Orchestrator.
 *
 * Dispatches a fixed roster of probe modules in parallel, each bounded
 * by a per-probe timeout, and aggregates their results in deterministic
 * dispatch order with fault isolation. Grounded on
 * original_source/src/static_scan.py's ThreadPoolExecutor-with-timeout
 * gather, translated to goroutines + context.WithTimeout, matching the
 * cancellation-aware loop idiom internal/capture/engine.go already uses
 * for Source.Start. See spec.md §4.7/§8.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package staticscan

import (
	"context"
	"fmt"
	"time"
)

// Result is the schema a single probe returns.
type Result struct {
	Category string         `json:"category"`
	Score    int            `json:"score"`
	Details  map[string]any `json:"details"`
}

// Probe is a single static-scan module, an opaque callable per spec.md
// §1's Non-goals (individual probe implementations are out of scope).
type Probe struct {
	Name string
	Scan func(ctx context.Context) (Result, error)
}

// Report is the orchestrator's aggregated output.
type Report struct {
	Findings  []Result `json:"findings"`
	RiskScore int      `json:"risk_score"`
}

const defaultProbeTimeout = 5 * time.Second

// priority fixes the dispatch order spec.md §4.7 requires: "ports"
// first, "os_banner" second, remaining probes after in the order they
// were registered.
var priority = map[string]int{"ports": 0, "os_banner": 1}

// Orchestrator dispatches a fixed, injected probe roster. Discovery is
// a configured list rather than a filesystem/package scan, to avoid
// coupling to Go's build/packaging model (spec.md §9's design note).
type Orchestrator struct {
	probes  []Probe
	timeout time.Duration
}

// New builds an Orchestrator over probes, ordered per spec.md §4.7.
// timeout <= 0 uses the spec default of 5s.
func New(probes []Probe, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ordered := orderedProbes(probes)
	return &Orchestrator{probes: ordered, timeout: timeout}
}

// orderedProbes stable-sorts probes so "ports" lands at index 0 and
// "os_banner" at index 1 when present, preserving relative order among
// the rest (and among any name not named with a leading underscore --
// discovery filtering is the caller's responsibility when building the
// probe list from a registry).
func orderedProbes(probes []Probe) []Probe {
	out := make([]Probe, len(probes))
	copy(out, probes)

	rank := func(name string) int {
		if r, ok := priority[name]; ok {
			return r
		}
		return len(priority)
	}

	// Stable insertion sort keeps probes sharing a rank in their
	// original relative order, matching Python's list.sort stability
	// the original implementation relies on.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && rank(out[j].Name) < rank(out[j-1].Name); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Run dispatches every probe in parallel, each bounded by the
// orchestrator's per-probe timeout, and returns the aggregated Report
// with findings in dispatch order. A single probe's timeout or panic
// never aborts the others (fault isolation, spec.md §4.7/§7).
func (o *Orchestrator) Run(ctx context.Context) Report {
	results := make([]Result, len(o.probes))

	type outcome struct {
		idx int
		res Result
	}
	done := make(chan outcome, len(o.probes))

	for i, p := range o.probes {
		go func(i int, p Probe) {
			done <- outcome{idx: i, res: o.runOne(ctx, p)}
		}(i, p)
	}

	for range o.probes {
		o := <-done
		results[o.idx] = o.res
	}

	riskScore := 0
	for _, r := range results {
		riskScore += r.Score
	}
	return Report{Findings: results, RiskScore: riskScore}
}

// runOne executes a single probe with its own timeout, converting a
// timeout or panic/error into the placeholder Result shape spec.md
// §4.7 specifies, and filling any missing field on success.
func (o *Orchestrator) runOne(ctx context.Context, p Probe) (result Result) {
	probeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%v", r)}
			}
		}()
		res, err := p.Scan(probeCtx)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case <-probeCtx.Done():
		return Result{Category: p.Name, Score: 0, Details: map[string]any{"error": "timeout"}}
	case o := <-ch:
		if o.err != nil {
			return Result{Category: p.Name, Score: 0, Details: map[string]any{"error": o.err.Error()}}
		}
		return fillDefaults(p.Name, o.res)
	}
}

func fillDefaults(name string, r Result) Result {
	if r.Category == "" {
		r.Category = name
	}
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	return r
}
