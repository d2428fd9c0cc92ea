/**
 * Analyzer Pipeline Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package analyzer

import (
	"testing"
	"time"

	"github.com/netsentry/netsentry/internal/models"
)

// fakeStore is an in-memory Store used only by tests.
type fakeStore struct {
	findings []models.Finding
	dns      []models.DnsRow
	known    map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{known: make(map[string]bool)}
}

func (s *fakeStore) SaveFinding(f models.Finding) { s.findings = append(s.findings, f) }

func (s *fakeStore) SaveDNS(ip, host string, blacklisted bool) {
	s.dns = append(s.dns, models.DnsRow{IP: ip, Hostname: host, Blacklisted: blacklisted})
}

func (s *fakeStore) RecordDevice(mac string) bool {
	if s.known[mac] {
		return false
	}
	s.known[mac] = true
	return true
}

type fakeCountryLookup struct {
	code string
	ok   bool
}

func (f fakeCountryLookup) Lookup(ip string) (string, bool) { return f.code, f.ok }

type fakeDNSResolver struct {
	host string
	ok   bool
}

func (f fakeDNSResolver) Lookup(ip string) (string, bool) { return f.host, f.ok }

type fakeBlacklist struct{ blocked map[string]bool }

func (f fakeBlacklist) Contains(host string) bool { return f.blocked[host] }

func mustTime(t *testing.T, layout, value string) int64 {
	t.Helper()
	parsed, err := time.ParseInLocation(layout, value, time.Local)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return parsed.Unix()
}

// TestFullDynamicFlowDangerousProtocolOffHours mirrors spec.md §8
// scenario 1: five identical observations of a telnet session outside
// business hours from an approved device in a dangerous country.
func TestFullDynamicFlowDangerousProtocolOffHours(t *testing.T) {
	store := newFakeStore()
	ts := mustTime(t, "2006-01-02T15:04:05", "2024-01-01T02:00:00")

	a := New(store, Config{
		GeoIP:        fakeCountryLookup{code: "CN", ok: true},
		DNS:          fakeDNSResolver{host: "example.com", ok: true},
		Blacklist:    fakeBlacklist{blocked: map[string]bool{}},
		DangerousCC:  map[string]struct{}{"CN": {}},
		ApprovedMacs: map[string]struct{}{"00:11:22:33:44:55": {}},
		Schedule:     Schedule{Start: 9, End: 17},
	}, nil)

	obs := models.Observation{
		SrcIP:     models.StringPtr("1.1.1.1"),
		DstIP:     models.StringPtr("2.2.2.2"),
		Protocol:  models.StringPtr("TELNET"),
		SrcMAC:    models.StringPtr("00:11:22:33:44:55"),
		Size:      100,
		Timestamp: ts,
	}

	for i := 0; i < 5; i++ {
		store.SaveFinding(a.Analyze(obs))
	}

	if len(store.findings) != 5 {
		t.Fatalf("expected 5 findings, got %d", len(store.findings))
	}

	for i, f := range store.findings {
		if f.DangerousProtocol == nil || !*f.DangerousProtocol {
			t.Fatalf("finding %d: expected dangerous_protocol=true", i)
		}
		if f.UnapprovedDevice == nil || *f.UnapprovedDevice {
			t.Fatalf("finding %d: expected unapproved_device=false", i)
		}
		if f.OutOfHours == nil || !*f.OutOfHours {
			t.Fatalf("finding %d: expected out_of_hours=true", i)
		}
		if f.CountryCode == nil || *f.CountryCode != "CN" {
			t.Fatalf("finding %d: expected country_code=CN", i)
		}
		if f.DangerousCountry == nil || !*f.DangerousCountry {
			t.Fatalf("finding %d: expected dangerous_country=true", i)
		}
		wantNew := i == 0
		if f.NewDevice == nil || *f.NewDevice != wantNew {
			t.Fatalf("finding %d: expected new_device=%v, got %v", i, wantNew, f.NewDevice)
		}
	}
}

// TestDangerousProtocolByPortNotLabel checks that an observation with no
// protocol label is still flagged dangerous by its dst_port (3389), and
// that the nil protocol is left nil on the Finding.
func TestDangerousProtocolByPortNotLabel(t *testing.T) {
	store := newFakeStore()
	a := New(store, Config{Schedule: Schedule{Start: 0, End: 24}}, nil)

	obs := models.Observation{
		SrcIP:     models.StringPtr("3.3.3.3"),
		DstPort:   models.Uint16Ptr(3389),
		Size:      10,
		Timestamp: time.Now().Unix(),
	}
	f := a.Analyze(obs)
	if f.DangerousProtocol == nil || !*f.DangerousProtocol {
		t.Fatalf("expected dangerous_protocol=true via dst_port=3389")
	}
	if f.Protocol != nil {
		t.Fatalf("expected protocol to remain nil, got %v", *f.Protocol)
	}
}

func TestUnapprovedDeviceLowercaseComparison(t *testing.T) {
	store := newFakeStore()
	a := New(store, Config{
		ApprovedMacs: map[string]struct{}{"aa:bb:cc:dd:ee:ff": {}},
		Schedule:     Schedule{Start: 0, End: 24},
	}, nil)

	obs := models.Observation{
		SrcMAC:    models.StringPtr("AA:BB:CC:DD:EE:FF"),
		Size:      10,
		Timestamp: time.Now().Unix(),
	}
	f := a.Analyze(obs)
	if f.UnapprovedDevice == nil || *f.UnapprovedDevice {
		t.Fatalf("expected unapproved_device=false for case-insensitive match")
	}
}

func TestOutOfHoursBoundaries(t *testing.T) {
	store := newFakeStore()
	a := New(store, Config{Schedule: Schedule{Start: 9, End: 17}}, nil)

	atStart := mustTime(t, "2006-01-02T15:04:05", "2024-01-01T09:00:00")
	atEnd := mustTime(t, "2006-01-02T15:04:05", "2024-01-01T17:00:00")

	fStart := a.Analyze(models.Observation{Timestamp: atStart, Size: 1})
	if fStart.OutOfHours == nil || *fStart.OutOfHours {
		t.Fatalf("expected in-hours exactly at start")
	}

	fEnd := a.Analyze(models.Observation{Timestamp: atEnd, Size: 1})
	if fEnd.OutOfHours == nil || !*fEnd.OutOfHours {
		t.Fatalf("expected out-of-hours exactly at end")
	}
}

func TestTrafficAnomalySpikeAfterBaseline(t *testing.T) {
	store := newFakeStore()
	a := New(store, Config{
		Schedule:   Schedule{Start: 0, End: 24},
		Thresholds: Thresholds{SpikeThresholdBytes: 100},
	}, nil)

	base := time.Now()
	obs := func(size int, offset time.Duration) models.Finding {
		return a.Analyze(models.Observation{
			SrcIP:     models.StringPtr("9.9.9.9"),
			Size:      size,
			Timestamp: base.Add(offset).Unix(),
		})
	}

	f1 := obs(50, 0)
	f2 := obs(60, time.Second)
	if f1.TrafficAnomaly == nil || *f1.TrafficAnomaly {
		t.Fatalf("expected first sample not anomalous")
	}
	if f2.TrafficAnomaly == nil || *f2.TrafficAnomaly {
		t.Fatalf("expected second sample not anomalous")
	}
	f3 := obs(300, 2*time.Second)
	if f3.TrafficAnomaly == nil || !*f3.TrafficAnomaly {
		t.Fatalf("expected spike to be flagged anomalous")
	}
}

func TestTrafficAnomalyResetsAfterGap(t *testing.T) {
	store := newFakeStore()
	a := New(store, Config{
		Schedule:   Schedule{Start: 0, End: 24},
		Thresholds: Thresholds{SpikeThresholdBytes: 100, ContinuousGap: time.Second},
	}, nil)

	base := time.Now()
	a.Analyze(models.Observation{SrcIP: models.StringPtr("5.5.5.5"), Size: 100, Timestamp: base.Unix()})
	f := a.Analyze(models.Observation{SrcIP: models.StringPtr("5.5.5.5"), Size: 50, Timestamp: base.Add(2 * time.Second).Unix()})
	if f.TrafficAnomaly == nil || *f.TrafficAnomaly {
		t.Fatalf("expected stats reset after gap, got anomalous")
	}
}

func TestSourceKeyFallsBackToMac(t *testing.T) {
	f := models.Finding{SrcMAC: models.StringPtr("aa:bb")}
	if got := f.SourceKey(); got != "aa:bb" {
		t.Fatalf("expected fallback to src_mac, got %q", got)
	}
	empty := models.Finding{}
	if got := empty.SourceKey(); got != "unknown" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}
