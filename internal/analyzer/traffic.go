/**
 * Traffic-Anomaly Sub-Detector.
 *
 * Per-source (src_ip, falling back to src_mac) bounded history of the
 * last 10 samples, flagging either a sustained burst of activity or a
 * single sample that spikes well above the recent average. Grounded on
 * original_source/src/dynamic_scan/traffic_anomaly.py.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package analyzer

import (
	"sync"
	"time"
)

const (
	maxSamples                  = 10
	defaultSpikeThreshold int64 = 1_000_000
	defaultContinuousDuration   = 60 * time.Second
	defaultContinuousGap        = 10 * time.Second
)

// Thresholds configures the traffic-anomaly sub-detector. A zero value
// in any field falls back to the compiled default -- spec.md §4.3.1's
// "missing/unparseable configuration file falls back to default
// silently" is implemented one layer up, in internal/config.
type Thresholds struct {
	SpikeThresholdBytes int64
	ContinuousDuration  time.Duration
	ContinuousGap       time.Duration
}

func (t Thresholds) spike() int64 {
	if t.SpikeThresholdBytes > 0 {
		return t.SpikeThresholdBytes
	}
	return defaultSpikeThreshold
}

func (t Thresholds) duration() time.Duration {
	if t.ContinuousDuration > 0 {
		return t.ContinuousDuration
	}
	return defaultContinuousDuration
}

func (t Thresholds) gap() time.Duration {
	if t.ContinuousGap > 0 {
		return t.ContinuousGap
	}
	return defaultContinuousGap
}

type sourceStats struct {
	history   []int64 // bounded ring, oldest first, capacity maxSamples
	total     int64
	count     int64
	startTime time.Time
	lastSeen  time.Time
}

// trafficTracker holds one sourceStats per source key.
type trafficTracker struct {
	mu         sync.Mutex
	thresholds Thresholds
	bySource   map[string]*sourceStats
}

func newTrafficTracker(t Thresholds) *trafficTracker {
	return &trafficTracker{
		thresholds: t,
		bySource:   make(map[string]*sourceStats),
	}
}

// observe updates key's stats with a sample of size bytes at time t and
// returns whether this observation is anomalous.
func (tr *trafficTracker) observe(key string, size int, t time.Time) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	s, ok := tr.bySource[key]
	if !ok {
		s = &sourceStats{startTime: t, lastSeen: t}
		tr.bySource[key] = s
	} else if t.Sub(s.lastSeen) > tr.thresholds.gap() {
		s.history = s.history[:0]
		s.total = 0
		s.count = 0
		s.startTime = t
	}

	b := int64(size)
	s.history = append(s.history, b)
	if len(s.history) > maxSamples {
		s.history = s.history[len(s.history)-maxSamples:]
	}
	s.total += b
	s.count++
	s.lastSeen = t

	if t.Sub(s.startTime) > tr.thresholds.duration() {
		return true
	}
	if s.count == 1 {
		return b > tr.thresholds.spike()
	}
	avg := float64(s.total-b) / float64(s.count-1)
	return float64(b) > avg+float64(tr.thresholds.spike())
}
