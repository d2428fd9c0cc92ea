/**
 * Static-Scan Probe Stub Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package probes

import (
	"context"
	"testing"
)

func TestRegistryReturnsFullRoster(t *testing.T) {
	want := []string{"ports", "os_banner", "upnp", "arp_spoof", "dhcp", "dns", "ssl_cert", "smb_netbios"}
	got := Registry()
	if len(got) != len(want) {
		t.Fatalf("expected %d probes, got %d", len(want), len(got))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Fatalf("expected probe %d to be %q, got %q", i, want[i], p.Name)
		}
	}
}

func TestEachProbeReturnsZeroScoreResult(t *testing.T) {
	for _, p := range Registry() {
		res, err := p.Scan(context.Background())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", p.Name, err)
		}
		if res.Category != p.Name {
			t.Fatalf("%s: expected category %q, got %q", p.Name, p.Name, res.Category)
		}
		if res.Score != 0 {
			t.Fatalf("%s: expected score 0, got %d", p.Name, res.Score)
		}
		if res.Details == nil {
			t.Fatalf("%s: expected non-nil details", p.Name)
		}
	}
}
