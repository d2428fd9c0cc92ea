/**
 * Store Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/netsentry/netsentry/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", 3, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveFindingStampsTimestampAndBuffers(t *testing.T) {
	s := newTestStore(t)
	s.SaveFinding(models.Finding{SrcIP: models.StringPtr("1.1.1.1")})

	recent := s.GetRecent()
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent finding, got %d", len(recent))
	}
	if recent[0].Timestamp == "" {
		t.Fatalf("expected timestamp to be stamped at save time")
	}
}

func TestRecentBufferDropsOldest(t *testing.T) {
	s := newTestStore(t) // capacity 3
	for i := 0; i < 5; i++ {
		s.SaveFinding(models.Finding{SrcIP: models.StringPtr(fmt.Sprintf("10.0.0.%d", i))})
	}
	recent := s.GetRecent()
	if len(recent) != 3 {
		t.Fatalf("expected recent buffer capped at 3, got %d", len(recent))
	}
	if *recent[0].SrcIP != "10.0.0.2" || *recent[2].SrcIP != "10.0.0.4" {
		t.Fatalf("expected the two oldest findings dropped, got %v", recent)
	}
}

func TestRecordDeviceFirstSeenOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	if !s.RecordDevice("aa:bb:cc:dd:ee:ff") {
		t.Fatalf("expected first record to report new")
	}
	if s.RecordDevice("aa:bb:cc:dd:ee:ff") {
		t.Fatalf("expected second record of same mac to report not-new")
	}
}

func TestRecordDevicePersistsAcrossProcessLifetime(t *testing.T) {
	s := newTestStore(t)
	s.RecordDevice("11:22:33:44:55:66")

	// Simulate a fresh in-process Analyzer session reusing the same
	// Store instance: the known-device set is process-lifetime, owned
	// by the Store, not reset per session (spec.md §9).
	if s.RecordDevice("11:22:33:44:55:66") {
		t.Fatalf("expected mac to remain known across sessions sharing this Store")
	}
}

func TestFetchHistoryFiltersByDeviceAndProtocol(t *testing.T) {
	s := newTestStore(t)
	s.SaveFinding(models.Finding{SrcIP: models.StringPtr("2.2.2.2"), Protocol: models.StringPtr("ftp")})
	s.SaveFinding(models.Finding{SrcIP: models.StringPtr("3.3.3.3"), Protocol: models.StringPtr("telnet")})

	results, err := s.FetchHistory(HistoryFilter{Device: "2.2.2.2"})
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(results) != 1 || *results[0].SrcIP != "2.2.2.2" {
		t.Fatalf("expected one result for 2.2.2.2, got %v", results)
	}

	results, err = s.FetchHistory(HistoryFilter{Protocol: "telnet"})
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(results) != 1 || *results[0].Protocol != "telnet" {
		t.Fatalf("expected one telnet result, got %v", results)
	}
}

func TestFetchDNSHistoryDateRangeInclusive(t *testing.T) {
	s := newTestStore(t)
	s.SaveDNS("4.4.4.4", "example.com", false)

	today := time.Now().Format("2006-01-02")
	rows, err := s.FetchDNSHistory(today, today)
	if err != nil {
		t.Fatalf("fetch dns history: %v", err)
	}
	if len(rows) != 1 || rows[0].Hostname != "example.com" {
		t.Fatalf("expected one dns row for today, got %v", rows)
	}
}

func TestSubscribeReceivesBroadcastFinding(t *testing.T) {
	s := newTestStore(t)
	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	s.SaveFinding(models.Finding{SrcIP: models.StringPtr("5.5.5.5")})

	select {
	case f := <-ch:
		if f.SrcIP == nil || *f.SrcIP != "5.5.5.5" {
			t.Fatalf("unexpected finding received: %v", f)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast finding")
	}
}

func TestSubscribeDeviceAlertsOnFirstSeen(t *testing.T) {
	s := newTestStore(t)
	id, ch := s.SubscribeDeviceAlerts()
	defer s.UnsubscribeDeviceAlerts(id)

	s.RecordDevice("aa:aa:aa:aa:aa:aa")

	select {
	case alert := <-ch:
		if alert.MAC != "aa:aa:aa:aa:aa:aa" {
			t.Fatalf("unexpected device alert: %v", alert)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for device alert")
	}
}
