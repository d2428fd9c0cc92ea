/**
 * Observation Analyzer.
 *
 * Applies the classification pipeline to each Observation, producing a
 * Finding: GeoIP annotation, reverse DNS, dangerous protocol, first-seen
 * device, unapproved device, traffic anomaly, out-of-hours. Grounded on
 * original_source/src/dynamic_scan/analyze.py's analyse_packets loop,
 * adapted from netscope's internal/enricher pipeline shape.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package analyzer

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/netsentry/netsentry/internal/models"
	"github.com/netsentry/netsentry/internal/resolver"
	"go.uber.org/zap"
)

// defaultResolverPool is used when Config.ResolverPool is unset.
const defaultResolverPool = 4

// DangerousProtocols is the set of app-layer protocol labels that are
// always dangerous, regardless of port (spec.md §4.3 step 3).
var DangerousProtocols = map[string]struct{}{
	"telnet": {},
	"ftp":    {},
	"rdp":    {},
}

// DangerousPorts is the set of ports whose presence on either side of an
// Observation marks it dangerous (spec.md §4.3 step 3).
var DangerousPorts = map[uint16]struct{}{
	21:   {},
	23:   {},
	445:  {},
	2323: {},
	3389: {},
	5900: {},
	5901: {},
	5985: {},
	5986: {},
}

// Store is the subset of internal/storage.Store the Analyzer depends on.
// Kept narrow so the Analyzer can be tested without a real database.
type Store interface {
	SaveFinding(f models.Finding)
	SaveDNS(ip, host string, blacklisted bool)
	RecordDevice(mac string) (isNew bool)
}

// Schedule is the half-open business-hours interval [Start, End).
type Schedule struct {
	Start int
	End   int
}

// Config bundles the Analyzer's resolver capabilities and tunables.
// All resolvers are injected so the analyzer can be tested without
// network I/O (spec.md §4.2).
type Config struct {
	GeoIP        resolver.CountryLookup
	DNS          resolver.ReverseDNSResolver
	Blacklist    resolver.BlacklistMembership
	DangerousCC  map[string]struct{} // ISO-3166-1 alpha-2, uppercase
	ApprovedMacs map[string]struct{} // lowercase
	Schedule     Schedule
	Thresholds   Thresholds
	ResolverPool int // worker-pool size for offloadable GeoIP/DNS lookups; 0 -> default
}

// Analyzer consumes Observations and produces Findings into a Store.
type Analyzer struct {
	store   Store
	cfg     Config
	log     *zap.Logger
	traffic *trafficTracker
}

// New builds an Analyzer. cfg.ApprovedMacs keys must already be
// lowercased; cfg.DangerousCC keys must already be uppercased.
func New(store Store, cfg Config, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ApprovedMacs == nil {
		cfg.ApprovedMacs = map[string]struct{}{}
	}
	if cfg.DangerousCC == nil {
		cfg.DangerousCC = map[string]struct{}{}
	}
	return &Analyzer{
		store:   store,
		cfg:     cfg,
		log:     log,
		traffic: newTrafficTracker(cfg.Thresholds),
	}
}

// Run consumes obsCh until it is closed or ctx is cancelled, emitting one
// Finding per Observation into the Store. Returns once both the channel
// is drained/closed and every worker has exited.
//
// GeoIP and reverse-DNS lookups may block on network I/O (spec.md §4.3
// steps 1-2); a single consumer loop would stall the whole pipeline
// behind a slow lookup. Instead Run fans observations out to a small
// pool of workers, each bound to a source key by hash so that "within a
// single source, observations are processed in enqueue order" (spec.md
// §9) still holds -- a source only ever lands on one worker, and a
// channel preserves its own enqueue order.
func (a *Analyzer) Run(ctx context.Context, obsCh <-chan models.Observation) {
	n := a.cfg.ResolverPool
	if n <= 0 {
		n = defaultResolverPool
	}

	lanes := make([]chan models.Observation, n)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan models.Observation, 16)
		wg.Add(1)
		go func(ch <-chan models.Observation) {
			defer wg.Done()
			for obs := range ch {
				a.store.SaveFinding(a.Analyze(obs))
			}
		}(lanes[i])
	}

dispatch:
	for {
		select {
		case <-ctx.Done():
			break dispatch
		case obs, ok := <-obsCh:
			if !ok {
				break dispatch
			}
			lane := lanes[laneFor(sourceKeyOf(obs), n)]
			select {
			case lane <- obs:
			case <-ctx.Done():
				break dispatch
			}
		}
	}

	for _, ch := range lanes {
		close(ch)
	}
	wg.Wait()
}

// sourceKeyOf mirrors models.Finding.SourceKey before a Finding exists.
func sourceKeyOf(obs models.Observation) string {
	if obs.SrcIP != nil && *obs.SrcIP != "" {
		return *obs.SrcIP
	}
	if obs.SrcMAC != nil && *obs.SrcMAC != "" {
		return *obs.SrcMAC
	}
	return "unknown"
}

func laneFor(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % n
}

// Analyze runs the full per-Observation pipeline and returns the merged
// Finding. Exported directly so tests can drive it without a channel.
func (a *Analyzer) Analyze(obs models.Observation) models.Finding {
	f := models.NewFindingFromObservation(obs)

	a.annotateGeoIP(&f, obs)
	a.annotateReverseDNS(&f, obs)
	a.annotateDangerousProtocol(&f, obs)
	a.annotateNewDevice(&f, obs)
	a.annotateUnapprovedDevice(&f, obs)
	a.annotateTrafficAnomaly(&f, obs)
	a.annotateOutOfHours(&f, obs)

	return f
}

// annotateGeoIP is step 1: GeoIP annotation on src_ip if present.
func (a *Analyzer) annotateGeoIP(f *models.Finding, obs models.Observation) {
	if obs.SrcIP == nil || *obs.SrcIP == "" || a.cfg.GeoIP == nil {
		return
	}
	code, ok := a.cfg.GeoIP.Lookup(*obs.SrcIP)
	if !ok {
		return
	}
	f.GeoIP = &models.GeoInfo{Country: code, IP: *obs.SrcIP}
	f.CountryCode = models.StringPtr(code)
	_, dangerous := a.cfg.DangerousCC[code]
	f.DangerousCountry = models.BoolPtr(dangerous)
}

// annotateReverseDNS is step 2: reverse DNS on src_ip if present. On
// success writes one row to DNS history via the Store.
func (a *Analyzer) annotateReverseDNS(f *models.Finding, obs models.Observation) {
	if obs.SrcIP == nil || *obs.SrcIP == "" || a.cfg.DNS == nil {
		return
	}
	host, ok := a.cfg.DNS.Lookup(*obs.SrcIP)
	if !ok {
		return
	}
	f.ReverseDNS = models.StringPtr(host)
	blacklisted := false
	if a.cfg.Blacklist != nil {
		blacklisted = a.cfg.Blacklist.Contains(host)
	}
	f.ReverseDNSBlacklisted = models.BoolPtr(blacklisted)
	a.store.SaveDNS(*obs.SrcIP, host, blacklisted)
}

// annotateDangerousProtocol is step 3. A non-string protocol (nil) is
// false, never null.
func (a *Analyzer) annotateDangerousProtocol(f *models.Finding, obs models.Observation) {
	dangerous := false
	if obs.Protocol != nil {
		label := strings.ToLower(*obs.Protocol)
		if _, ok := DangerousProtocols[label]; ok {
			dangerous = true
		}
	}
	if !dangerous {
		if portDangerous(obs.SrcPort) || portDangerous(obs.DstPort) {
			dangerous = true
		}
	}
	f.DangerousProtocol = models.BoolPtr(dangerous)
}

func portDangerous(p *uint16) bool {
	if p == nil {
		return false
	}
	_, ok := DangerousPorts[*p]
	return ok
}

// annotateNewDevice is step 4: first-seen device tracking against the
// Store's process-lifetime known-device set.
func (a *Analyzer) annotateNewDevice(f *models.Finding, obs models.Observation) {
	if obs.SrcMAC == nil || *obs.SrcMAC == "" {
		return
	}
	isNew := a.store.RecordDevice(strings.ToLower(*obs.SrcMAC))
	f.NewDevice = models.BoolPtr(isNew)
}

// annotateUnapprovedDevice is step 5.
func (a *Analyzer) annotateUnapprovedDevice(f *models.Finding, obs models.Observation) {
	if obs.SrcMAC == nil || *obs.SrcMAC == "" {
		f.UnapprovedDevice = models.BoolPtr(true)
		return
	}
	_, approved := a.cfg.ApprovedMacs[strings.ToLower(*obs.SrcMAC)]
	f.UnapprovedDevice = models.BoolPtr(!approved)
}

// annotateTrafficAnomaly is step 6, delegating to the per-source deque
// tracker described in spec.md §4.3.1.
func (a *Analyzer) annotateTrafficAnomaly(f *models.Finding, obs models.Observation) {
	key := f.SourceKey()
	now := time.Unix(obs.Timestamp, 0)
	anomaly := a.traffic.observe(key, obs.Size, now)
	f.TrafficAnomaly = models.BoolPtr(anomaly)
}

// annotateOutOfHours is step 7. Exactly at Start is in-hours; exactly
// at End is out-of-hours (half-open interval).
func (a *Analyzer) annotateOutOfHours(f *models.Finding, obs models.Observation) {
	hour := time.Unix(obs.Timestamp, 0).Local().Hour()
	out := hour < a.cfg.Schedule.Start || hour >= a.cfg.Schedule.End
	f.OutOfHours = models.BoolPtr(out)
}

